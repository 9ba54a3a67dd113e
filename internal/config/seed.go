package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/juju/errors"
	"gopkg.in/yaml.v3"

	"github.com/baditaflorin/go_status_dashboard/internal/models"
)

// LoadSeed reads services to add from a JSON or YAML file. Both
// {"services": [...]} and a bare array are accepted. Only name and url of
// each entry are used.
func LoadSeed(path string) ([]models.AddServiceRequest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Annotate(err, "reading seed file")
	}

	unmarshal := json.Unmarshal
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		unmarshal = yaml.Unmarshal
	}

	var seed struct {
		Services []models.AddServiceRequest `json:"services" yaml:"services"`
	}

	// Try the object form first, then a bare array.
	if err := unmarshal(content, &seed); err != nil {
		var services []models.AddServiceRequest
		if err2 := unmarshal(content, &services); err2 != nil {
			return nil, errors.Annotatef(err, "parsing seed file %s", path)
		}
		seed.Services = services
	}

	for i, svc := range seed.Services {
		if svc.Name == "" && svc.URL == "" {
			return nil, errors.NotValidf("seed entry %d without name and url", i)
		}
	}
	return seed.Services, nil
}
