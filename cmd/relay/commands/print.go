package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

func Print(w io.Writer, format string, v interface{}) error {
	var bz []byte
	var err error
	switch format {
	case "yaml":
		bz, err = yaml.Marshal(v)
	case "toml":
		bz, err = toml.Marshal(v)
	default:
		bz, err = json.MarshalIndent(v, "", "  ")
		bz = append(bz, '\n')
	}
	if err != nil {
		return fmt.Errorf("could not encode %s: %v", format, err)
	}
	_, err = w.Write(bz)
	return err
}
