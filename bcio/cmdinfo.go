package bcio

import (
	"context"
	"encoding/json"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
)

// OrderedOption is one CLI option as recorded into cmd_info.json, in the
// order it was parsed. None of the example repos dump ordered CLI
// options to JSON, so this uses encoding/json directly rather than a
// third-party encoder.
type OrderedOption struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// WriteCmdInfo writes a cmd_info.json-format file at path: a JSON array of the options the
// run was invoked with, in parse order.
func WriteCmdInfo(ctx context.Context, path string, options []OrderedOption) error {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "bcio: creating", path)
	}
	enc := json.NewEncoder(out.Writer(ctx))
	enc.SetIndent("", "  ")
	if err := enc.Encode(options); err != nil {
		return errors.E(err, "bcio: encoding", path)
	}
	return out.Close(ctx)
}
