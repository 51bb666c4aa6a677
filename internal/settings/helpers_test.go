package settings

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/invoice-api/internal/settings/schema"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(schema.MustBuiltin(), opts...)
	require.NoError(t, err)
	return e
}

type testOwner struct {
	id       uuid.UUID
	level    Level
	settings Object
}

func newTestOwner(level Level, settings Object) *testOwner {
	return &testOwner{id: uuid.New(), level: level, settings: settings}
}

func (o *testOwner) Level() Level                { return o.level }
func (o *testOwner) OwnerID() uuid.UUID          { return o.id }
func (o *testOwner) CurrentSettings() Object     { return o.settings }
func (o *testOwner) ReplaceSettings(next Object) { o.settings = next }

// recordingPersister captures what each PersistSettings call saw.
type recordingPersister struct {
	err   error
	calls []Object
}

func (p *recordingPersister) PersistSettings(_ context.Context, owner Owner) error {
	p.calls = append(p.calls, owner.CurrentSettings().Clone())
	return p.err
}

type observation struct {
	key      string
	expected schema.TypeTag
}

type recordingObserver struct {
	mu      sync.Mutex
	failed  []observation
	dropped []observation
}

func (o *recordingObserver) ValidationFailed(key string, expected schema.TypeTag) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed = append(o.failed, observation{key, expected})
}

func (o *recordingObserver) SettingDropped(key string, expected schema.TypeTag) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dropped = append(o.dropped, observation{key, expected})
}
