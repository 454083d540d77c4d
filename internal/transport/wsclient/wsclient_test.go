package wsclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowcore/internal/ferrors"
	"flowcore/internal/transport/wsclient"
)

func TestSender_NoTargetConfigured_ReturnsUnknownServiceAddress(t *testing.T) {
	sender := wsclient.New("", nil)
	err := sender.Heartbeat(context.Background(), []byte("ping"))

	require.Error(t, err)
	assert.True(t, ferrors.IsUnknownServiceAddress(err))
}

func TestSender_DialFailure_ReturnsCommunicationError(t *testing.T) {
	sender := wsclient.New("ws://127.0.0.1:1/nope", nil)
	err := sender.Heartbeat(context.Background(), []byte("ping"))

	require.Error(t, err)
	se := ferrors.As(err)
	require.NotNil(t, se)
	assert.Equal(t, ferrors.ErrCodeCommunication, se.Code)
}

func TestSender_HeartbeatAndSendBulletins_DeliverOverSameConnection(t *testing.T) {
	upgrader := websocket.Upgrader{}
	received := make(chan []byte, 2)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		for i := 0; i < 2; i++ {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			received <- msg
		}
	}))
	defer srv.Close()

	target := "ws" + strings.TrimPrefix(srv.URL, "http")
	sender := wsclient.New(target, nil)
	defer sender.Close()

	require.NoError(t, sender.Heartbeat(context.Background(), []byte("heartbeat-1")))
	require.NoError(t, sender.SendBulletins(context.Background(), []byte("bulletins-1")))

	for i := 0; i < 2; i++ {
		select {
		case <-received:
		case <-time.After(time.Second):
			t.Fatal("server did not receive expected frame")
		}
	}
}

func TestSender_Close_IsIdempotentWithoutConnection(t *testing.T) {
	sender := wsclient.New("ws://127.0.0.1:1/nope", nil)
	assert.NoError(t, sender.Close())
	assert.NoError(t, sender.Close())
}

func TestRemoteGroupFetcher_NoTargetConfigured_ReturnsUnknownServiceAddress(t *testing.T) {
	fetcher := wsclient.NewRemoteGroupFetcher(nil)
	_, _, err := fetcher.Refresh(context.Background(), "")

	require.Error(t, err)
	assert.True(t, ferrors.IsUnknownServiceAddress(err))
}

func TestRemoteGroupFetcher_Refresh_DecodesReportedPorts(t *testing.T) {
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		_, _, err = conn.ReadMessage()
		require.NoError(t, err)
		reply := `{"input_ports":[{"id":"in-1","name":"intake","connected":true}],"output_ports":[{"id":"out-1","name":"exit"}]}`
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(reply)))
	}))
	defer srv.Close()

	target := "ws" + strings.TrimPrefix(srv.URL, "http")
	fetcher := wsclient.NewRemoteGroupFetcher(nil)

	inputs, outputs, err := fetcher.Refresh(context.Background(), target)
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	assert.Equal(t, "in-1", inputs[0].ID)
	assert.Equal(t, "intake", inputs[0].Name)
	assert.True(t, inputs[0].Connected)
	require.Len(t, outputs, 1)
	assert.Equal(t, "out-1", outputs[0].ID)
	assert.False(t, outputs[0].Connected)
}
