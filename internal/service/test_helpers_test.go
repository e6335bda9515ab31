package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/chepyr/go-task-tracker/internal/access"
	"github.com/chepyr/go-task-tracker/internal/auth"
	"github.com/chepyr/go-task-tracker/internal/db"
	"github.com/chepyr/go-task-tracker/internal/db/dbtest"
	"github.com/chepyr/go-task-tracker/internal/models"
)

const testSecret = "service_test_secret_at_least_32_chars"

type recordedEvents struct {
	mu     sync.Mutex
	events []models.TaskEvent
}

func (r *recordedEvents) Publish(e models.TaskEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordedEvents) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []string{}
	for _, e := range r.events {
		out = append(out, e.Event)
	}
	return out
}

func (r *recordedEvents) last() models.TaskEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return models.TaskEvent{}
	}
	return r.events[len(r.events)-1]
}

type fixture struct {
	conn     *sqlx.DB
	events   *recordedEvents
	tokens   *auth.TokenManager
	auth     *AuthService
	tasks    *TaskService
	comments *CommentService
}

func setupFixture(t *testing.T, policy access.ElevationPolicy) *fixture {
	t.Helper()

	conn := dbtest.Open(t)
	users := db.NewUserRepository(conn)
	events := &recordedEvents{}
	tokens := auth.NewTokenManager(testSecret, 24*time.Hour)
	tasks := NewTaskService(db.NewTaskRepository(conn), users, events)

	return &fixture{
		conn:     conn,
		events:   events,
		tokens:   tokens,
		auth:     NewAuthService(users, auth.NewPasswordHasher(bcrypt.MinCost), tokens, policy),
		tasks:    tasks,
		comments: NewCommentService(db.NewCommentRepository(conn), tasks, events),
	}
}

func as(u *models.User) context.Context {
	return auth.WithPrincipal(context.Background(), u)
}
