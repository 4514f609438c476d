package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSet_RestoresPreviousClock(t *testing.T) {
	base := time.Date(2026, 10, 1, 9, 30, 0, 0, time.FixedZone("JST", 9*60*60))
	stub := NewStub(base)
	restore := Set(stub)

	assert.True(t, Now().Equal(base))
	assert.Equal(t, time.UTC, UTCNow().Location())
	assert.Equal(t, "20261001-003000", NowUTCFormatted("20060102-150405"))

	stub.Advance(90 * time.Second)
	assert.Equal(t, "20261001-003130", NowUTCFormatted("20060102-150405"))

	restore()
	assert.WithinDuration(t, time.Now(), Now(), time.Second)
}
