// internal/service/notification/hub_test.go
package notification

import (
	"testing"
	"time"
)

func TestPushToOfflineUser(t *testing.T) {
	hub := NewHub()
	if hub.Push("nobody", []byte("hi")) {
		t.Error("Push to offline user should report false")
	}
}

func TestPushToRegisteredClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := &Client{hub: hub, send: make(chan []byte, 1), userID: "u1"}
	hub.register <- client

	// register 经由 channel 异步生效
	deadline := time.After(time.Second)
	for !hub.Push("u1", []byte("order placed")) {
		select {
		case <-deadline:
			t.Fatal("client never became reachable")
		case <-time.After(time.Millisecond):
		}
	}

	select {
	case msg := <-client.send:
		if string(msg) != "order placed" {
			t.Errorf("message = %q, want %q", msg, "order placed")
		}
	default:
		t.Fatal("no message delivered to client")
	}
}

func TestReconnectReplacesOldClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	oldClient := &Client{hub: hub, send: make(chan []byte, 1), userID: "u1"}
	hub.register <- oldClient
	newClient := &Client{hub: hub, send: make(chan []byte, 1), userID: "u1"}
	hub.register <- newClient

	// 等新连接生效
	deadline := time.After(time.Second)
	for {
		hub.lock.RLock()
		current := hub.clients["u1"]
		hub.lock.RUnlock()
		if current == newClient {
			break
		}
		select {
		case <-deadline:
			t.Fatal("new client never replaced the old one")
		case <-time.After(time.Millisecond):
		}
	}

	if !hub.Push("u1", []byte("hello")) {
		t.Fatal("Push to reconnected user failed")
	}
	select {
	case <-newClient.send:
	default:
		t.Error("message should go to the new client")
	}

	// 旧连接的 send 已被关闭
	select {
	case _, ok := <-oldClient.send:
		if ok {
			t.Error("old client should not receive messages")
		}
	default:
		t.Error("old client send channel should be closed")
	}
}
