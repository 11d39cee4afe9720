package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/database"
)

// openServiceDB opens an isolated in-memory sqlite database named after the
// test, so parallel tests never share state.
func openServiceDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	return db
}

func newTestValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

type notifyCall struct {
	UserIDs []uint
	Input   NotificationInput
}

// recordingNotifier captures fan-out calls instead of persisting rows.
type recordingNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
}

func (n *recordingNotifier) Notify(_ context.Context, userIDs []uint, input NotificationInput) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notifyCall{UserIDs: append([]uint(nil), userIDs...), Input: input})
	return nil
}

func (n *recordingNotifier) Calls() []notifyCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notifyCall(nil), n.calls...)
}

type stubUploader struct {
	uploads int
}

func (u *stubUploader) Upload(_ context.Context, name string, _ io.Reader) (string, error) {
	u.uploads++
	return "https://cdn.example.com/" + name, nil
}

type stubMailer struct {
	welcomes int
	resets   []string
}

func (m *stubMailer) SendWelcome(_ context.Context, _, _ string) error {
	m.welcomes++
	return nil
}

func (m *stubMailer) SendPasswordReset(_ context.Context, _, _, token string) error {
	m.resets = append(m.resets, token)
	return nil
}
