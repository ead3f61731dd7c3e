// Package sse fans out draft version changes to Server-Sent Events subscribers.
package sse

import (
	"sync"

	"github.com/Rani367/Hativon-sub000/internal/model"
)

type Client struct {
	Msg     chan string
	DraftID model.DraftID
}

func NewClient(id model.DraftID) *Client {
	return &Client{
		Msg:     make(chan string, 1),
		DraftID: id,
	}
}

type SSEClients struct {
	clients map[*Client]bool
	mu      sync.RWMutex
}

func NewSSEClients() *SSEClients {
	return &SSEClients{
		clients: make(map[*Client]bool),
	}
}

func (s *SSEClients) Add(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client] = true
}

func (s *SSEClients) Delete(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[client]; !ok {
		return
	}
	delete(s.clients, client)
	close(client.Msg)
}

// Broadcast never blocks: a subscriber that is not keeping up misses the message.
func (s *SSEClients) Broadcast(draftID model.DraftID, msg string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for client := range s.clients {
		if client.DraftID == draftID {
			select {
			case client.Msg <- msg:
			default:
			}
		}
	}
}

func (s *SSEClients) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}
