package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/palaver/internal/config"
	"github.com/aretw0/palaver/internal/logging"
	redisadapter "github.com/aretw0/palaver/pkg/adapters/redis"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const worldYAML = `
objects:
  sword: Rusty Sword
owners:
  - id: smith
    name: Smith
    nodes:
      - id: start
        type: Start
        next: hello
      - id: hello
        type: NpcSay
        properties:
          Text: Need a blade?
        next: menu
      - id: menu
        type: PlayerChoice
        properties:
          Text1: Buy the sword
          Text2: Not today
        ports:
          Option1: buy
          Option2: bye
      - id: buy
        type: BuyItem
        properties:
          ObjectId: sword
          Price: 5
        ports:
          Success: bye
          NotEnoughMoney: bye
      - id: bye
        type: End
`

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "world.yaml")
	require.NoError(t, os.WriteFile(path, []byte(worldYAML), 0644))
	return config.Config{
		World:      path,
		Store:      config.StoreFile,
		SessionDir: filepath.Join(dir, "sessions"),
		StartMoney: 5,
	}
}

func TestPlay(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	app, err := NewApp(ctx, cfg, logging.NewNop())
	require.NoError(t, err)
	defer app.Close()

	var out bytes.Buffer
	err = Play(ctx, app, PlayOptions{
		OwnerID:   "smith",
		SessionID: "hero",
		Plain:     true,
		In:        strings.NewReader("1\n"),
		Out:       &out,
	})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Smith: Need a blade?")
	assert.Contains(t, out.String(), "Bought Rusty Sword for 5 coins.")
	assert.NotContains(t, out.String(), "parked")

	sess, err := app.Game.Session(ctx, "hero")
	require.NoError(t, err)
	assert.Equal(t, []string{"sword"}, sess.Inventory)
	assert.Nil(t, sess.Conversation)
	assert.FileExists(t, filepath.Join(cfg.SessionDir, "hero.json"))

	assert.Equal(t, float64(1), testutil.ToFloat64(app.Metrics.ConversationsStarted.WithLabelValues("smith")))
	assert.Equal(t, float64(1), testutil.ToFloat64(app.Metrics.ConversationsEnded.WithLabelValues("smith", "end_node")))
}

func TestPlay_ParksAndResetsFresh(t *testing.T) {
	ctx := context.Background()
	app, err := NewApp(ctx, testConfig(t), logging.NewNop())
	require.NoError(t, err)

	var out bytes.Buffer
	opts := PlayOptions{OwnerID: "smith", SessionID: "hero", Plain: true, In: strings.NewReader(""), Out: &out}
	require.NoError(t, Play(ctx, app, opts))
	assert.Contains(t, out.String(), ">>> Conversation parked at 'menu'. Resume with --session hero.")

	sess, err := app.Game.Session(ctx, "hero")
	require.NoError(t, err)
	require.NotNil(t, sess.ActiveConversation())

	opts.Fresh = true
	opts.In = strings.NewReader("2\n")
	out.Reset()
	require.NoError(t, Play(ctx, app, opts))
	assert.NotContains(t, out.String(), "Resuming")

	sess, err = app.Game.Session(ctx, "hero")
	require.NoError(t, err)
	assert.Nil(t, sess.Conversation)
	assert.Equal(t, 5, sess.Money)
}

func TestPlay_JSON(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Store = config.StoreMemory
	app, err := NewApp(ctx, cfg, nil)
	require.NoError(t, err)

	var out bytes.Buffer
	err = Play(ctx, app, PlayOptions{OwnerID: "smith", JSON: true, In: strings.NewReader("\"2\"\n"), Out: &out})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], `"type":"dialogue"`)
	assert.Contains(t, lines[1], `"type":"prompt"`)
	assert.Contains(t, lines[2], `"type":"conversation_ended"`)
}

func TestPlay_UnknownOwner(t *testing.T) {
	ctx := context.Background()
	app, err := NewApp(ctx, testConfig(t), nil)
	require.NoError(t, err)

	err = Play(ctx, app, PlayOptions{OwnerID: "ghost", Plain: true, In: strings.NewReader(""), Out: &bytes.Buffer{}})
	assert.ErrorContains(t, err, "not_found")
}

func TestPlay_SealedSessions(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.SessionKey = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	app, err := NewApp(ctx, cfg, nil)
	require.NoError(t, err)

	err = Play(ctx, app, PlayOptions{OwnerID: "smith", SessionID: "hero", Plain: true, In: strings.NewReader("1\n"), Out: &bytes.Buffer{}})
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(cfg.SessionDir, "hero.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"sealed"`)
	assert.NotContains(t, string(raw), "sword")

	sess, err := app.Game.Session(ctx, "hero")
	require.NoError(t, err)
	assert.Equal(t, []string{"sword"}, sess.Inventory)
}

func TestNewApp_MissingWorld(t *testing.T) {
	cfg := testConfig(t)
	cfg.World = filepath.Join(t.TempDir(), "nope.yaml")

	_, err := NewApp(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "error loading world")
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := config.Config{Store: config.StoreRedis, RedisAddr: mr.Addr()}
		store, locker, closer, err := OpenStore(ctx, cfg)
		require.NoError(t, err)
		defer closer()

		assert.IsType(t, &redisadapter.Store{}, store)
		assert.NotNil(t, locker)
	})

	t.Run("redis unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		_, _, _, err := OpenStore(ctx, config.Config{Store: config.StoreRedis, RedisAddr: addr})
		assert.ErrorContains(t, err, "error connecting to redis")
	})

	t.Run("unknown", func(t *testing.T) {
		_, _, _, err := OpenStore(ctx, config.Config{Store: "etcd"})
		assert.Error(t, err)
	})

	t.Run("bad session keys", func(t *testing.T) {
		good := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{1}, 32))

		_, _, _, err := OpenStore(ctx, config.Config{Store: config.StoreMemory, SessionKey: "c2hvcnQ="})
		assert.ErrorContains(t, err, "32 bytes")

		_, _, _, err = OpenStore(ctx, config.Config{
			Store:               config.StoreMemory,
			SessionKey:          good,
			SessionKeyFallbacks: []string{"%%%"},
		})
		assert.ErrorContains(t, err, "fallback key 0")
	})
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(config.Config{LogLevel: "warn", LogFormat: "json"})
	require.NoError(t, err)
	assert.False(t, logger.Enabled(context.Background(), -4))

	logger, err = NewLogger(config.Config{LogLevel: "warn", Debug: true})
	require.NoError(t, err)
	assert.True(t, logger.Enabled(context.Background(), -4))

	_, err = NewLogger(config.Config{LogLevel: "loud"})
	assert.Error(t, err)

	_, err = NewLogger(config.Config{LogFormat: "xml"})
	assert.Error(t, err)
}
