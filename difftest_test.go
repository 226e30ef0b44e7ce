package parquetquery_test

import (
	"fmt"
	"testing"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
)

// requireTextEqual fails t with a unified diff, in the teacher's style for
// comparing generated multi-line text (gotextdiff.ToUnified / myers.ComputeEdits
// rather than a plain string equality check), when want and got differ.
func requireTextEqual(t *testing.T, want, got string) {
	t.Helper()
	if want == got {
		return
	}
	edits := myers.ComputeEdits(span.URIFromPath("want.txt"), want, got)
	diff := fmt.Sprint(gotextdiff.ToUnified("want.txt", "got.txt", want, edits))
	t.Errorf("text mismatch:\n%s", diff)
}
