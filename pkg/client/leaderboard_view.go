// Package client реализует потребителя лидерборда: загрузку снапшота по HTTP
// и подписку на realtime-обновления по WebSocket. Используется табло зрителей
// и интеграционными тестами.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"github.com/yourusername/brainiac-api/internal/domain/entity"
	"github.com/yourusername/brainiac-api/internal/localstore"
	"github.com/yourusername/brainiac-api/internal/service/ranking"
)

const defaultRequestTimeout = 10 * time.Second

// View — локальная реплика лидерборда. Хранит последний известный набор
// результатов и выводит из него отображаемый порядок тем же движком
// ранжирования, что и сервер.
type View struct {
	baseURL     string
	wsURL       string
	httpClient  *http.Client
	rankingOpts ranking.Options

	// store, если задан, дублирует каждый полученный набор на диск
	// и служит источником при недоступном сервере
	store *localstore.Store

	mu      sync.RWMutex
	results []entity.PlayerResult
	stale   bool

	conn   *gorillaws.Conn
	connMu sync.Mutex

	// OnRoomMessage вызывается для сообщений receive_message (опционально)
	OnRoomMessage func(data json.RawMessage)
}

// NewView создает представление лидерборда.
// baseURL — HTTP-адрес API (например, "http://localhost:8080"),
// wsURL — адрес WebSocket endpoint (например, "ws://localhost:8080/ws").
func NewView(baseURL, wsURL string, rankingOpts ranking.Options) *View {
	return &View{
		baseURL:     baseURL,
		wsURL:       wsURL,
		httpClient:  &http.Client{Timeout: defaultRequestTimeout},
		rankingOpts: rankingOpts,
	}
}

// WithLocalStore включает offline-режим: каждый полученный набор
// дублируется в локальное хранилище, а при недоступном сервере Load
// отдаёт последний сохранённый набор.
func (v *View) WithLocalStore(store *localstore.Store) *View {
	v.store = store
	return v
}

// Load загружает снапшот лидерборда по HTTP, страница за страницей.
// При ошибке транспорта реплика помечается устаревшей; если задано
// локальное хранилище — подставляется последний сохранённый набор.
func (v *View) Load(ctx context.Context) error {
	var all []entity.PlayerResult

	for page := 1; ; page++ {
		entries, err := v.fetchPage(ctx, page)
		if err != nil {
			v.loadOffline()
			return err
		}
		if len(entries) == 0 {
			break
		}
		for _, e := range entries {
			all = append(all, e.PlayerResult)
		}
	}

	v.replaceResults(all)
	return nil
}

func (v *View) fetchPage(ctx context.Context, page int) ([]ranking.Entry, error) {
	url := fmt.Sprintf("%s/leaderboard?page=%d", v.baseURL, page)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard page %d: %w", page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching leaderboard page %d", resp.StatusCode, page)
	}

	var entries []ranking.Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode leaderboard page %d: %w", page, err)
	}
	return entries, nil
}

// Subscribe подключается к WebSocket и применяет обновления до отмены
// контекста или ошибки транспорта. Блокирует вызывающую горутину.
func (v *View) Subscribe(ctx context.Context) error {
	dialer := gorillaws.Dialer{HandshakeTimeout: defaultRequestTimeout}
	conn, _, err := dialer.DialContext(ctx, v.wsURL, nil)
	if err != nil {
		v.markStale()
		return fmt.Errorf("failed to connect to %s: %w", v.wsURL, err)
	}

	v.connMu.Lock()
	v.conn = conn
	v.connMu.Unlock()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			v.markStale()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("websocket read failed: %w", err)
		}
		v.apply(message)
	}
}

// JoinRoom отправляет запрос на вступление в комнату по открытому соединению
func (v *View) JoinRoom(room string) error {
	v.connMu.Lock()
	defer v.connMu.Unlock()
	if v.conn == nil {
		return fmt.Errorf("not connected")
	}
	return v.conn.WriteJSON(map[string]interface{}{
		"type": "join_room",
		"data": room,
	})
}

// apply обрабатывает одно входящее событие
func (v *View) apply(message []byte) {
	var event struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(message, &event); err != nil {
		log.Printf("[View] Не удалось распарсить событие: %v", err)
		return
	}

	switch event.Type {
	case "update_leaderboard":
		var results []entity.PlayerResult
		if err := json.Unmarshal(event.Data, &results); err != nil {
			log.Printf("[View] Не удалось распарсить update_leaderboard: %v", err)
			return
		}
		v.replaceResults(results)

	case "update_likes":
		var delta struct {
			ID    uint `json:"id"`
			Likes int  `json:"likes"`
		}
		if err := json.Unmarshal(event.Data, &delta); err != nil {
			log.Printf("[View] Не удалось распарсить update_likes: %v", err)
			return
		}
		v.patchLikes(delta.ID, delta.Likes)

	case "new_score":
		// За new_score всегда следует полный update_leaderboard,
		// отдельной обработки не требуется

	case "receive_message":
		if v.OnRoomMessage != nil {
			v.OnRoomMessage(event.Data)
		}
	}
}

// Entries возвращает текущий отображаемый порядок. Порядок выводится
// локально тем же движком ранжирования, что и на сервере.
func (v *View) Entries() []ranking.Entry {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return ranking.Rank(v.results, v.rankingOpts).Entries
}

// Top3 возвращает тройку победителей текущей реплики
func (v *View) Top3() []ranking.Entry {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return ranking.Rank(v.results, v.rankingOpts).Top3()
}

// Stale сообщает, что реплика могла устареть после ошибки транспорта.
// Последний известный набор при этом продолжает отображаться.
func (v *View) Stale() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.stale
}

// Close закрывает WebSocket соединение, если оно открыто
func (v *View) Close() error {
	v.connMu.Lock()
	defer v.connMu.Unlock()
	if v.conn == nil {
		return nil
	}
	err := v.conn.Close()
	v.conn = nil
	return err
}

func (v *View) replaceResults(results []entity.PlayerResult) {
	v.mu.Lock()
	v.results = results
	v.stale = false
	store := v.store
	v.mu.Unlock()

	if store != nil {
		store.SaveAllResults(results)
	}
}

// loadOffline подставляет последний сохранённый набор из локального
// хранилища; реплика остаётся помеченной как устаревшая
func (v *View) loadOffline() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stale = true
	if v.store != nil && len(v.results) == 0 {
		v.results = v.store.GetTopResults()
	}
}

// patchLikes обновляет только счётчик лайков: лайки не входят в ключ
// ранжирования, пересортировка не нужна
func (v *View) patchLikes(id uint, likes int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.results {
		if v.results[i].ID == id {
			v.results[i].Likes = likes
			return
		}
	}
}

func (v *View) markStale() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stale = true
}
