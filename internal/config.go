// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package internal

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Parameters of all commands, as read from a YAML configuration file.
// Sections missing from the file keep their defaults.
type Config struct {
	Science ScienceParams `yaml:"science"`
	StdMap  StdMapParams  `yaml:"stdmap"`
	MagLoss MagLossParams `yaml:"magloss"`
	Loss    LossParams    `yaml:"loss"`
	Serve   ServeParams   `yaml:"serve"`
}

func DefaultConfig() *Config {
	return &Config{
		Science: DefaultScienceParams(),
		StdMap:  DefaultStdMapParams(),
		MagLoss: DefaultMagLossParams(),
		Loss:    DefaultLossParams(),
		Serve:   DefaultServeParams(),
	}
}

// Read a configuration file on top of the defaults. An empty name returns the defaults.
func LoadConfig(fileName string) (*Config, error) {
	c := DefaultConfig()
	if fileName == "" {
		return c, nil
	}
	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	return c, nil
}

// Write the configuration as YAML, e.g. to seed a configuration file
func (c *Config) WriteFile(fileName string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(fileName, data, 0644)
}
