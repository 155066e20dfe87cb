package neat

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// LoadYAMLOptions loads Options encoded as YAML from the given reader.
func LoadYAMLOptions(r io.Reader) (*Options, error) {
	content, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	opts := *DefaultOptions()
	if err = yaml.Unmarshal(content, &opts); err != nil {
		return nil, errors.Wrap(err, "failed to decode options from YAML")
	}
	if err = InitLogger(opts.LogLevel); err != nil {
		return nil, errors.Wrap(err, "failed to initialize logger")
	}
	if err = opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid options")
	}
	return &opts, nil
}

// LoadPlainOptions loads Options from a plain-text "key value" per-line reader.
func LoadPlainOptions(r io.Reader) (*Options, error) {
	c := DefaultOptions()
	var name, param string
	for {
		_, err := fmt.Fscanf(r, "%s %v\n", &name, &param)
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		switch name {
		case "neuron_min":
			c.NeuronMin = cast.ToInt(param)
		case "neuron_max":
			c.NeuronMax = cast.ToInt(param)
		case "fanin_max":
			c.FanInMax = cast.ToInt(param)
		case "gen_width":
			c.GenWidth = cast.ToInt(param)
		case "concurrent_genomes":
			c.ConcurrentGenomes = cast.ToInt(param)
		case "crossval_count":
			c.CrossvalCount = cast.ToInt(param)
		case "test_fold_span":
			c.TestFoldSpan = cast.ToInt(param)
		case "minibatch_size":
			c.MinibatchSize = cast.ToInt(param)
		case "standard_batch_count":
			c.StandardBatchCount = cast.ToInt(param)
		case "cost_buffer_len":
			c.CostBufferLen = cast.ToInt(param)
		case "log_level":
			c.LogLevel = param
		default:
			return nil, errors.Errorf("unknown configuration parameter found: %s = %s", name, param)
		}
	}
	if err := InitLogger(c.LogLevel); err != nil {
		return nil, errors.Wrap(err, "failed to initialize logger")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ReadOptionsFromFile reads Options from configFilePath, resolving encoding from the file extension.
func ReadOptionsFromFile(configFilePath string) (*Options, error) {
	configFile, err := os.Open(configFilePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open config file")
	}
	defer configFile.Close()

	fileName := configFile.Name()
	if strings.HasSuffix(fileName, "yml") || strings.HasSuffix(fileName, "yaml") {
		return LoadYAMLOptions(configFile)
	}
	return LoadPlainOptions(configFile)
}
