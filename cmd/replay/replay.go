package main

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"scanserver/internal/aggregator"
	"scanserver/internal/model"
)

// Replay feeds CSV rows of code,errorScore into agg until the file ends or
// the session converges. A header row starting with "code" is skipped. It
// returns the final snapshot and the number of rows recorded.
func Replay(r io.Reader, agg *aggregator.Aggregator) (*model.Snapshot, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	snap := agg.Snapshot()
	replayed := 0
	for snap.ShouldContinue {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, replayed, err
		}
		if replayed == 0 && strings.EqualFold(strings.TrimSpace(record[0]), "code") {
			continue
		}

		score := -1.0
		if len(record) > 1 {
			if v, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64); err == nil {
				score = v
			}
		}

		agg.Record(strings.TrimSpace(record[0]), score)
		replayed++
		snap = agg.Snapshot()
	}
	return snap, replayed, nil
}

// stepClock advances by a fixed step on every reading, standing in for the
// frame rate of a live camera.
type stepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func newStepClock(start time.Time, step time.Duration) *stepClock {
	return &stepClock{now: start, step: step}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}
