package chunk_test

import (
	"strings"
	"testing"

	"github.com/yaklabco/mdsync/pkg/chunk"
)

func BenchmarkSplit(b *testing.B) {
	doc := strings.Repeat("# Heading\n\nparagraph text\n\n```\ncode\n```\n\n", 2000)
	opts := chunk.DefaultSplitOptions()

	b.SetBytes(int64(len(doc)))
	b.ResetTimer()
	for range b.N {
		chunk.Split(doc, opts)
	}
}
