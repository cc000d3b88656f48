package main

import (
	"embed"
	"encoding/json"
	"io/ioutil"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemasFS embed.FS

// readInputFile reads a YAML or JSON file, validates it against the named
// schema and unmarshals it into inputObj.
func readInputFile(
	filename string,
	schemaName string,
	inputObj interface{},
) error {
	inputBytes, err := ioutil.ReadFile(filename)
	if err != nil {
		return errors.Wrapf(err, "error reading file %s", filename)
	}
	if strings.HasSuffix(filename, ".yaml") ||
		strings.HasSuffix(filename, ".yml") {
		if inputBytes, err = yaml.YAMLToJSON(inputBytes); err != nil {
			return errors.Wrapf(err, "error converting file %s to JSON", filename)
		}
	}
	if err = validateInput(schemaName, inputBytes); err != nil {
		return errors.Wrapf(err, "file %s is invalid", filename)
	}
	if err = json.Unmarshal(inputBytes, inputObj); err != nil {
		return errors.Wrapf(err, "error unmarshaling file %s", filename)
	}
	return nil
}

func validateInput(schemaName string, inputBytes []byte) error {
	schemaBytes, err := schemasFS.ReadFile("schemas/" + schemaName + ".json")
	if err != nil {
		return errors.Wrapf(err, "error loading schema %q", schemaName)
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewBytesLoader(inputBytes),
	)
	if err != nil {
		return errors.Wrap(err, "error validating input")
	}
	if !result.Valid() {
		verrStrs := make([]string, len(result.Errors()))
		for i, verr := range result.Errors() {
			verrStrs[i] = verr.String()
		}
		return errors.Errorf(
			"input failed JSON validation:\n  %s",
			strings.Join(verrStrs, "\n  "),
		)
	}
	return nil
}

// mustJSON marshals an input assembled from flags so that it can be validated
// the same way as an input file.
func mustJSON(obj interface{}) []byte {
	inputBytes, err := json.Marshal(obj)
	if err != nil {
		panic(errors.Wrap(err, "error marshaling input"))
	}
	return inputBytes
}
