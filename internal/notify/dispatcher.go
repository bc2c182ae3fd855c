package notify

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/pixelmart/pixelmart/internal/config"
	"github.com/pixelmart/pixelmart/internal/db"
)

const TaskNotification = "notify:event"

var (
	client *asynq.Client
	server *asynq.Server
)

// Init starts the Asynq worker and initializes a shared client.
func Init() {
	opts := asynq.RedisClientOpt{Addr: config.Get().RedisAddr}
	client = asynq.NewClient(opts)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskNotification, handleEvent)

	server = asynq.NewServer(opts, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			"notifications": 10,
		},
	})
	go func() {
		if err := server.Run(mux); err != nil {
			log.Printf("Asynq server stopped: %v", err)
		}
	}()

	log.Printf("notification dispatcher initialized (redis=%s)", config.Get().RedisAddr)
}

// Close releases the client and stops the worker.
func Close() {
	if client != nil {
		_ = client.Close()
	}
	if server != nil {
		server.Shutdown()
	}
}

// Dispatch enqueues one task per event. Best-effort: enqueue failures are
// logged and swallowed so the caller's already-committed mutation stands.
func Dispatch(events []Event) {
	if len(events) == 0 {
		return
	}
	if client == nil {
		log.Printf("notify: dispatcher not initialized, dropping %d event(s)", len(events))
		return
	}
	for _, ev := range events {
		b, err := json.Marshal(ev)
		if err != nil {
			log.Printf("notify: marshal event for %s: %v", ev.RecipientID, err)
			continue
		}
		task := asynq.NewTask(TaskNotification, b)
		if _, err := client.Enqueue(task, asynq.Queue("notifications")); err != nil {
			log.Printf("notify: enqueue event for %s: %v", ev.RecipientID, err)
		}
	}
}

// handleEvent persists the event as an unread notification row.
func handleEvent(ctx context.Context, t *asynq.Task) error {
	var ev Event
	if err := json.Unmarshal(t.Payload(), &ev); err != nil {
		log.Printf("notify: bad task payload: %v", err)
		return nil // malformed payloads are not retryable
	}

	var reference interface{}
	if ev.Reference != "" {
		reference = ev.Reference
	}
	_, err := db.Conn.Exec(ctx, `
        INSERT INTO notifications (id, user_id, type, title, body, reference)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New().String(), ev.RecipientID, string(ev.Type), ev.Title, ev.Message, reference,
	)
	if err != nil {
		log.Printf("notify: insert notification for %s: %v", ev.RecipientID, err)
		return err
	}
	return nil
}
