package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/truveris/track/bridge"
	"github.com/truveris/track/media"
)

func init() {
	rootCmd.AddCommand(schemaCmd)

	schemaCmd.Flags().BoolP("descriptor", "d", false, "Generate the JSON Schema for a single media descriptor")
	schemaCmd.Flags().BoolP("notification", "n", false, "Generate the JSON Schema for the notifications posted to the parent")
	schemaCmd.MarkFlagsMutuallyExclusive("descriptor", "notification")
}

// schemaCmd generates JSON schemas for the messages exchanged with the parent window.
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Generate JSON schemas for the messages exchanged with the parent window",
	Run: func(cmd *cobra.Command, args []string) {
		reflector := new(jsonschema.Reflector)
		reflector.Anonymous = true
		reflector.Namer = func(t reflect.Type) string {
			name := t.Name()
			switch strings.ToLower(name) {
			case "playlist", "descriptor", "notification":
				return filepath.Base(t.PkgPath()) + "." + name
			}

			return name
		}

		var schema *jsonschema.Schema

		switch {
		case lo.Must(cmd.Flags().GetBool("descriptor")):
			schema = reflector.Reflect(&media.Descriptor{})
		case lo.Must(cmd.Flags().GetBool("notification")):
			schema = reflector.Reflect(&bridge.Notification{})
		default:
			schema = reflector.Reflect(&media.Playlist{})
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		handleErr(encoder.Encode(schema))
	},
}
