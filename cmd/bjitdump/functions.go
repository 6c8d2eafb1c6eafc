package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tetratelabs/baselinejit"
)

// functionsFile is the YAML document read by bjitdump:
//
//	functions:
//	  - name: add
//	    params: 2
//	    code:
//	      - get_arg 0
//	      - get_arg 1
//	      - add
//	      - return
type functionsFile struct {
	Functions []functionYAML `yaml:"functions"`
}

type functionYAML struct {
	Name   string   `yaml:"name"`
	Params int      `yaml:"params"`
	Locals int      `yaml:"locals"`
	Code   []opYAML `yaml:"code"`
}

// opYAML is an operation in its text form, e.g. "call_runtime 3 2".
type opYAML baselinejit.Op

// UnmarshalYAML implements yaml.Unmarshaler for opYAML.
func (o *opYAML) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	op, err := baselinejit.ParseOp(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*o = opYAML(op)
	return nil
}

// loadFunctions reads the functions of the YAML file at path.
func loadFunctions(path string) ([]*baselinejit.Function, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading functions file: %w", err)
	}

	var file functionsFile
	if err = yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("error parsing functions file: %w", err)
	}
	if len(file.Functions) == 0 {
		return nil, fmt.Errorf("error parsing functions file: no functions in %s", path)
	}

	ret := make([]*baselinejit.Function, len(file.Functions))
	for i, f := range file.Functions {
		fn := &baselinejit.Function{Name: f.Name, NumParams: f.Params, NumLocals: f.Locals}
		if fn.Name == "" {
			fn.Name = fmt.Sprintf("function[%d]", i)
		}
		for _, op := range f.Code {
			fn.Code = append(fn.Code, baselinejit.Op(op))
		}
		ret[i] = fn
	}
	return ret, nil
}
