package xirtnet

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ParamRow is a single setting of a params file, with the keys of its sections joined by ".", such
// as "LSTM.units".
type ParamRow struct {
	Param string
	Value string
}

// ParamsToCSV flattens the params file at paramsFile into one row per setting, sorted by name, and
// writes them to outFile as CSV with the columns "param" and "value".
func ParamsToCSV(paramsFile, outFile string) ([]ParamRow, error) {
	data, err := os.ReadFile(paramsFile)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read params file %s", paramsFile)
	}

	raw := make(map[string]interface{})
	if strings.EqualFold(filepath.Ext(paramsFile), ".toml") {
		_, err = toml.Decode(string(data), &raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to parse params file %s", paramsFile)
	}

	var rows []ParamRow
	flatten("", raw, &rows)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Param < rows[j].Param })

	f, err := os.Create(outFile)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to create %s", outFile)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"param", "value"}); err != nil {
		return nil, errors.Wrapf(err, "Failed to write %s", outFile)
	}
	for _, r := range rows {
		if err := w.Write([]string{r.Param, r.Value}); err != nil {
			return nil, errors.Wrapf(err, "Failed to write %s", outFile)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errors.Wrapf(err, "Failed to write %s", outFile)
	}
	return rows, f.Close()
}

func flatten(prefix string, v interface{}, rows *[]ParamRow) {
	m, ok := v.(map[string]interface{})
	if !ok {
		*rows = append(*rows, ParamRow{prefix, formatValue(v)})
		return
	}

	for k, sub := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		flatten(key, sub, rows)
	}
}

func formatValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []interface{}:
		s := make([]string, len(t))
		for i, e := range t {
			s[i] = formatValue(e)
		}
		return "[" + strings.Join(s, ", ") + "]"
	}

	return fmt.Sprint(v)
}
