package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"gopkg.in/yaml.v2"

	"github.com/spf13/viper"
)

const generatedConfigName = "sqlc.yaml"

// writeConfig собирает одноразовый sqlc.yaml под конкретный query.sql:
// имя пакета берём из каталога над sql/, туда же кладём сгенерированный код.
func writeConfig(engine *viper.Viper, file string) (string, error) {
	var (
		dir, _      = filepath.Split(file)
		parts       = strings.Split(dir, string(os.PathSeparator))
		packageName = parts[len(parts)-2]
	)
	engine.Set("gen.go.package", packageName)
	engine.Set("queries", file)
	engine.Set("gen.go.out", dir)

	engineSettings := engine.AllSettings()
	delete(engineSettings, "source")

	resultConfig := viper.New()
	resultConfig.Set("version", viper.GetString("version"))
	resultConfig.Set("sql", []interface{}{engineSettings})

	bs, err := yaml.Marshal(resultConfig.AllSettings())
	if err != nil {
		return "", errors.Wrap(err, "marshal config to yaml")
	}

	_ = os.Remove(generatedConfigName)
	out, err := os.Create(generatedConfigName)
	if err != nil {
		return "", errors.Wrap(err, "create sqlc.yaml file")
	}
	if _, err = out.Write(bs); err != nil {
		_ = os.Remove(out.Name())
		return "", errors.Wrap(err, "write content")
	}
	return out.Name(), nil
}

func callSqlc(config string) error {
	cmd := exec.Command("sqlc", "generate", "--file", config)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("call sqlc: %s", string(output)))
	}
	return nil
}

func main() {
	viper.SetConfigName(".sqlc.base")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	patterns := viper.GetStringSlice("sql.0.source")
	if len(patterns) == 0 {
		panic("has no sql.0.source in config")
	}
	files := make([]string, 0)
	for _, pattern := range patterns {
		f, err := filepath.Glob(pattern)
		if err != nil {
			panic(fmt.Errorf("get file glob: %w", err))
		}
		files = append(files, f...)
	}

	engine := viper.Sub("sql.0")
	engine.Set("schema", viper.GetString("sql.0.schema"))

	for _, file := range files {
		configFile, err := writeConfig(engine, file)
		if err != nil {
			panic(fmt.Errorf("can't generate result config: %w", err))
		}
		if err := callSqlc(configFile); err != nil {
			panic(fmt.Errorf("call sqlc: %w", err))
		}
		fmt.Printf("%s file complete\n", file)
	}
	_ = os.Remove(generatedConfigName)
	fmt.Println("done")
}
