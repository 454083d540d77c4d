package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowcore/internal/heartbeat"
	"flowcore/internal/repository"
)

func TestHeartbeatService_StartAndStopDelegateToSubsystem(t *testing.T) {
	sub := heartbeat.New(noopSender{}, repository.NewInMemoryBulletinRepository(0), noopLocker{}, nil, func() string { return "root" }, nil, nil)
	svc := &heartbeatService{sub: sub, cfg: heartbeat.Config{GeneratorInterval: 5 * time.Millisecond}}

	assert.Equal(t, "heartbeat", svc.Name())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, svc.Start(ctx))
	require.NoError(t, svc.Stop(context.Background()))
}

type noopSender struct{}

func (noopSender) Heartbeat(ctx context.Context, msg []byte) error     { return nil }
func (noopSender) SendBulletins(ctx context.Context, msg []byte) error { return nil }

type noopLocker struct{}

func (noopLocker) RLock()   {}
func (noopLocker) RUnlock() {}
