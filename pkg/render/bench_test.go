package render_test

import (
	"context"
	"strings"
	"testing"

	"github.com/yaklabco/mdsync/pkg/render"
)

func benchmarkDocument(sections int) string {
	var b strings.Builder
	for i := range sections {
		b.WriteString("## Section\n\nSome **bold** and ==marked== text with $x^2$ math.\n\n")
		b.WriteString("- item one\n- item two\n\n")
		if i%4 == 0 {
			b.WriteString("```go\nfunc main() {\n\tprintln(\"hi\")\n}\n```\n\n")
		}
	}
	return b.String()
}

func BenchmarkRender(b *testing.B) {
	r := render.New(render.DefaultOptions())
	doc := benchmarkDocument(50)
	ctx := context.Background()

	b.SetBytes(int64(len(doc)))
	b.ResetTimer()
	for range b.N {
		if _, err := r.Render(ctx, doc, 0); err != nil {
			b.Fatal(err)
		}
	}
}
