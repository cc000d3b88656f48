package main

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path"

	"github.com/krancour/guestflow/internal/credentials"
	"github.com/krancour/guestflow/internal/file"
	"github.com/pkg/errors"
)

type config struct {
	APIAddress string `json:"apiAddress"`
}

// getConfig returns the saved configuration. A missing configuration file is
// not an error; the zero config is returned instead.
func getConfig() (*config, error) {
	guestflowConfigFile, err := getConfigFile()
	if err != nil {
		return nil, err
	}
	config := &config{}
	if !file.Exists(guestflowConfigFile) {
		return config, nil
	}
	configBytes, err := ioutil.ReadFile(guestflowConfigFile)
	if err != nil {
		return nil, errors.Wrapf(
			err,
			"error reading guestflow config file at %s",
			guestflowConfigFile,
		)
	}
	if err := json.Unmarshal(configBytes, config); err != nil {
		return nil, errors.Wrapf(
			err,
			"error parsing guestflow config file at %s",
			guestflowConfigFile,
		)
	}
	return config, nil
}

func saveConfig(config *config) error {
	guestflowHome, err := credentials.GuestflowHome()
	if err != nil {
		return errors.Wrap(err, "error finding guestflow home")
	}
	if err = os.MkdirAll(guestflowHome, 0700); err != nil {
		return errors.Wrapf(
			err,
			"error creating guestflow home at %s",
			guestflowHome,
		)
	}
	guestflowConfigFile := path.Join(guestflowHome, "config")
	configBytes, err := json.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "error marshaling config")
	}
	if err :=
		ioutil.WriteFile(guestflowConfigFile, configBytes, 0644); err != nil {
		return errors.Wrapf(err, "error writing to %s", guestflowConfigFile)
	}
	return nil
}

func getConfigFile() (string, error) {
	guestflowHome, err := credentials.GuestflowHome()
	if err != nil {
		return "", errors.Wrap(err, "error finding guestflow home")
	}
	return path.Join(guestflowHome, "config"), nil
}
