package catalog

import (
	"log/slog"
	"os"
	"strings"

	"github.com/google/cel-go/cel"
	"gopkg.in/yaml.v3"

	"github.com/solacehq/solace/internal/errors"
)

// catalogFile is the on-disk shape of the template catalog.
type catalogFile struct {
	Version   int         `yaml:"version"`
	Templates []*Template `yaml:"templates"`
}

// guardEnv declares the variables a template `when` guard may reference.
func guardEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("emotion", cel.StringType),
		cel.Variable("intent", cel.StringType),
		cel.Variable("confidence", cel.DoubleType),
		cel.Variable("complexity", cel.DoubleType),
		cel.Variable("turn_index", cel.IntType),
		cel.Variable("preferred_name", cel.StringType),
		cel.Variable("key_relationships", cel.MapType(cel.StringType, cel.StringType)),
		cel.Variable("recent_emotions", cel.ListType(cel.StringType)),
	)
}

// load parses and validates the catalog file. Invalid entries are logged and
// skipped; a catalog with zero valid templates is an error.
func load(path string) (int, []*Template, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, nil, errors.CatalogInvalid("reading catalog file", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return 0, nil, errors.CatalogInvalid("parsing catalog yaml", err)
	}

	env, err := guardEnv()
	if err != nil {
		return 0, nil, errors.CatalogInvalid("building guard environment", err)
	}

	seen := make(map[string]struct{}, len(file.Templates))
	valid := make([]*Template, 0, len(file.Templates))
	for i, tpl := range file.Templates {
		if err := validateTemplate(tpl); err != nil {
			slog.Warn("catalog entry rejected",
				"error_code", errors.ErrCodeCatalogInvalid,
				"index", i,
				"template_id", idOrBlank(tpl),
				"error", err)
			continue
		}
		if _, dup := seen[tpl.ID]; dup {
			slog.Warn("catalog entry rejected",
				"error_code", errors.ErrCodeCatalogInvalid,
				"index", i,
				"template_id", tpl.ID,
				"error", "duplicate template id")
			continue
		}
		if tpl.Weight == 0 {
			tpl.Weight = 1.0
		}
		if tpl.When != "" {
			prg, err := compileGuard(env, tpl.When)
			if err != nil {
				slog.Warn("catalog entry rejected",
					"error_code", errors.ErrCodeCatalogInvalid,
					"index", i,
					"template_id", tpl.ID,
					"error", err)
				continue
			}
			tpl.guard = prg
		}
		seen[tpl.ID] = struct{}{}
		valid = append(valid, tpl)
	}

	if len(valid) == 0 {
		return 0, nil, errors.CatalogInvalid("catalog has zero valid templates", nil)
	}
	return file.Version, valid, nil
}

func compileGuard(env *cel.Env, expr string) (cel.Program, error) {
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, errors.Wrap(iss.Err(), errors.ErrCodeCatalogInvalid, "compiling guard expression")
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, errors.CatalogInvalid("guard expression must evaluate to bool", nil)
	}
	return env.Program(ast)
}

func validateTemplate(t *Template) error {
	if t == nil {
		return errors.CatalogInvalid("template must not be nil", nil)
	}
	if strings.TrimSpace(t.ID) == "" {
		return errors.CatalogInvalid("id must not be empty", nil)
	}
	if strings.TrimSpace(t.BaseText) == "" {
		return errors.CatalogInvalid("base_text must not be empty", nil)
	}
	if len(t.EmotionTags) == 0 {
		return errors.CatalogInvalid("emotion_tags must not be empty", nil)
	}
	if len(t.Variations) == 0 {
		return errors.CatalogInvalid("variations must not be empty", nil)
	}
	if t.Weight < 0 {
		return errors.CatalogInvalid("weight must not be negative", nil)
	}
	return nil
}

func idOrBlank(t *Template) string {
	if t == nil {
		return ""
	}
	return t.ID
}
