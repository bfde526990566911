package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * sizeMB, "5.0 MB"},
		{int64(2.5 * sizeGB), "2.5 GB"},
		{3 * sizeTB, "3.0 TB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, formatSize(tt.bytes))
	}
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "-", formatTime(time.Time{}))

	sameYear := time.Date(time.Now().Year(), time.March, 5, 14, 30, 0, 0, time.Local)
	assert.Equal(t, "Mar  5 14:30", formatTime(sameYear))

	otherYear := time.Date(2019, time.March, 5, 14, 30, 0, 0, time.Local)
	assert.Equal(t, "Mar  5  2019", formatTime(otherYear))
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer

	printTable(&buf,
		[]string{"ID", "STATUS"},
		[][]string{
			{"1", "done"},
			{"12", "failed"},
		})

	assert.Equal(t, "ID  STATUS\n1   done\n12  failed\n", buf.String())
}

func TestChunkCount(t *testing.T) {
	tests := []struct {
		size      int64
		chunkSize int64
		expected  int
	}{
		{0, 1024, 1},
		{1, 1024, 1},
		{1024, 1024, 1},
		{1025, 1024, 2},
		{10 * 1024, 1024, 10},
		{10*1024 + 1, 1024, 11},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, chunkCount(tt.size, tt.chunkSize), "size %d chunk %d", tt.size, tt.chunkSize)
	}
}
