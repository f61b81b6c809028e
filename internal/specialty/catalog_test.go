package specialty

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_LookupBeforeLoad(t *testing.T) {
	c := NewCatalog()

	_, ok := c.Lookup("3")
	assert.False(t, ok)
	assert.False(t, c.Ready())
	assert.Nil(t, c.Entries())
	assert.Equal(t, 0, c.Len())
}

func TestCatalog_ReplaceIsWholesale(t *testing.T) {
	c := NewCatalog()
	c.Replace([]Entry{{ID: "3", Name: "Pediatría"}, {ID: "4", Name: "Clínica"}})

	name, ok := c.Lookup("3")
	require.True(t, ok)
	assert.Equal(t, "Pediatría", name)

	c.Replace([]Entry{{ID: "5", Name: "Cardiología"}})
	_, ok = c.Lookup("3")
	assert.False(t, ok, "old entries must not survive a reload")
	assert.Equal(t, []Entry{{ID: "5", Name: "Cardiología"}}, c.Entries())
}

func TestCatalog_SkipsInvalidAndDuplicateEntries(t *testing.T) {
	c := NewCatalog()
	c.Replace([]Entry{
		{ID: "", Name: "Sin id"},
		{ID: "9", Name: "  "},
		{ID: "007", Name: "Neurología"},
		{ID: "7", Name: "Duplicada"},
	})

	assert.Equal(t, 1, c.Len())
	name, ok := c.Lookup("7")
	require.True(t, ok)
	assert.Equal(t, "Neurología", name)
}

func TestCatalog_Wait(t *testing.T) {
	c := NewCatalog()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.Wait(ctx), context.DeadlineExceeded)

	go c.Replace([]Entry{{ID: "1", Name: "Clínica"}})
	require.NoError(t, c.Wait(context.Background()))
	assert.True(t, c.Ready())

	// a second Replace must not panic on the closed channel
	c.Replace(nil)
	assert.True(t, c.Ready())
}

func TestCatalog_ConcurrentReadsDuringReload(t *testing.T) {
	c := NewCatalog()
	c.Replace([]Entry{{ID: "1", Name: "A"}})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				name, ok := c.Lookup("1")
				if ok {
					assert.Contains(t, []string{"A", "B"}, name)
				}
			}
		}()
	}
	for j := 0; j < 50; j++ {
		c.Replace([]Entry{{ID: "1", Name: "B"}})
	}
	wg.Wait()
}

func TestEntryFromMap(t *testing.T) {
	e, ok := EntryFromMap(map[string]any{"identifier": 3.0, "displayName": "Pediatría"})
	require.True(t, ok)
	assert.Equal(t, Entry{ID: "3", Name: "Pediatría"}, e)

	e, ok = EntryFromMap(map[string]any{"id": "12", "nombre": "Urología"})
	require.True(t, ok)
	assert.Equal(t, Entry{ID: "12", Name: "Urología"}, e)

	_, ok = EntryFromMap(map[string]any{"id": "12"})
	assert.False(t, ok)
}
