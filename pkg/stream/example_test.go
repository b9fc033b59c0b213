package stream_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/matzehuels/flowboard/pkg/stream"
)

type buffers map[string]string

func (b buffers) Reset(node string)        { b[node] = "" }
func (b buffers) Append(node, text string) { b[node] += text }

func ExampleConsume() {
	body := strings.Join([]string{
		"data: === node=n1 ===\nhello",
		"data: world",
		"event: error\nboom",
		"data: === node=n2 ===\nhi",
	}, "\n\n") + "\n\n"

	out := buffers{}
	stats, _ := stream.Consume(context.Background(), strings.NewReader(body), out, nil)

	fmt.Printf("n1=%q n2=%q\n", out["n1"], out["n2"])
	fmt.Println("errors:", stats.Errors)
	// Output:
	// n1="helloworld" n2="hi"
	// errors: [boom]
}
