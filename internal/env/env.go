// Package env validates raw environment values against a composed preset
// tree and binds the result behind a client/server access boundary.
package env

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"envin/internal/preset"
	"envin/internal/standard"
)

// Define composes the schema described by opts, validates opts.Values against
// it and returns the bound result.
//
// Errors: *preset.PrefixError for prefix violations, *StrictError for a
// strict source with the wrong keys, an error wrapping standard.ErrAsync when
// an adapter returns a pending result, *EnvError when validation fails, and a
// plain error when a transformed schema produces something other than a map.
func Define(opts Options) (*Env, error) {
	log := opts.logger()
	isServer := opts.server()

	if err := preset.CheckPrefixes(opts.Preset); err != nil {
		return nil, err
	}

	merged := preset.Compose(opts.Preset, isServer)
	if opts.Values.strict {
		if err := checkStrict(merged, opts.Values.values); err != nil {
			return nil, err
		}
	}
	raw := opts.Values.normalized()

	e := &Env{
		schema:   merged,
		boundary: preset.Visibility(opts.Preset),
		isServer: isServer,
		onAccess: opts.OnInvalidAccess,
		log:      log,
	}

	if opts.Skip {
		values := opts.registry().Dictionary(merged)
		for k, v := range raw {
			values[k] = v
		}
		e.values = values
		e.skipped = true
		log.Debug("validation skipped", zap.Int("variables", len(values)))
		return e, nil
	}

	res, err := validate(opts, merged, raw, isServer)
	if err != nil {
		return nil, err
	}
	if res.Failed() {
		onError := opts.OnError
		if onError == nil {
			onError = logIssues(log)
		}
		return nil, &EnvError{Issues: res.Issues, Hook: onError(res.Issues)}
	}

	values, ok := standard.ToValues(res.Value)
	if !ok {
		return nil, fmt.Errorf("envin: transformed schema produced %T, want a map", res.Value)
	}
	e.values = values
	log.Debug("environment validated", zap.Int("variables", len(values)), zap.Bool("server", isServer))
	return e, nil
}

// validate runs the optionally transformed schema. A plain object schema goes
// through ParseDictionary so that a pending result surfaces with its key.
func validate(opts Options, merged standard.Dictionary, raw map[string]any, isServer bool) (standard.Result, error) {
	var target standard.Schema = standard.Object(merged)
	if opts.Transform != nil {
		if t := opts.Transform(target, isServer); t != nil {
			target = t
		}
	}
	if obj, ok := target.(*standard.ObjectSchema); ok {
		return standard.ParseDictionary(obj.Shape, raw)
	}
	res := target.Validate(raw)
	if err := standard.EnsureSynchronous(res, "transformed schema returned a pending result"); err != nil {
		return standard.Result{}, err
	}
	return res, nil
}

func checkStrict(merged standard.Dictionary, values map[string]any) error {
	var se StrictError
	for _, k := range merged.Keys() {
		if _, ok := values[k]; !ok {
			se.Missing = append(se.Missing, k)
		}
	}
	for k := range values {
		if !merged.Has(k) {
			se.Unknown = append(se.Unknown, k)
		}
	}
	if len(se.Missing) == 0 && len(se.Unknown) == 0 {
		return nil
	}
	sort.Strings(se.Unknown)
	return &se
}

func logIssues(log *zap.Logger) func(standard.Issues) error {
	return func(issues standard.Issues) error {
		for _, it := range issues {
			log.Error("invalid environment variable",
				zap.String("variable", it.Variable()),
				zap.String("path", it.PathString()),
				zap.String("message", it.Message),
				zap.String("code", it.Code),
			)
		}
		return nil
	}
}
