package kvstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"gridbase/gridbase_go_view_engine_service/pkg/kvstore"
)

func TestMemoryGetSetDelete(t *testing.T) {
	kv := kvstore.NewMemory()
	ctx := context.Background()

	_, found, err := kv.Get(ctx, "missing")
	assert.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, kv.Set(ctx, "k", []byte("v1")))

	value, found, err := kv.Get(ctx, "k")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v1"), value)

	assert.NoError(t, kv.Delete(ctx, "k"))
	_, found, err = kv.Get(ctx, "k")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryOwnWritesDoNotEcho(t *testing.T) {
	kv := kvstore.NewMemory()

	calls := 0
	kv.Subscribe("k", func(value []byte) { calls++ })

	assert.NoError(t, kv.Set(context.Background(), "k", []byte("v1")))
	assert.Equal(t, 0, calls)
}

func TestMemoryExternalChangeNotifiesSubscribers(t *testing.T) {
	kv := kvstore.NewMemory()

	var got []byte
	kv.Subscribe("k", func(value []byte) { got = value })
	kv.Subscribe("other", func(value []byte) { t.Fatal("wrong key notified") })

	changer, ok := kv.(kvstore.ExternalChanger)
	assert.True(t, ok)
	changer.SimulateExternalChange("k", []byte("external"))

	assert.Equal(t, []byte("external"), got)

	value, found, err := kv.Get(context.Background(), "k")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("external"), value)
}
