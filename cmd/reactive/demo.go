package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/vango-dev/reactive/internal/config"
	"github.com/vango-dev/reactive/pkg/reactive"
)

func demoCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the read-only scenarios",
		Long: `Run the read-only and shallow read-only scenarios and a small
effect/computed example against a fresh runtime.

Refused writes are reported as warnings on stderr.

Examples:
  reactive demo
  reactive demo --log-level=debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := config.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			return runDemo(cmd.OutOrStdout(), logger)
		},
	}

	cmd.Flags().StringVarP(&logLevel, "log-level", "l", "warn", "Log level (debug, info, warn, error)")

	return cmd
}

func runDemo(out io.Writer, logger *slog.Logger) error {
	rt := reactive.New(reactive.WithLogger(logger))

	// Deep read-only: neither the property nor the nested object changes.
	o := reactive.ObjectOf("bar", reactive.ObjectOf("foo", 2))
	w := rt.Readonly(o)
	if err := w.Set("bar", reactive.ObjectOf("foo", 4)); err != nil {
		return err
	}
	bar := w.Nested("bar")
	if err := bar.Set("foo", bar.Get("foo").(int)+1); err != nil {
		return err
	}
	fmt.Fprintf(out, "readonly          W.bar.foo = %v  O.bar.foo = %v\n",
		w.Nested("bar").Get("foo"), o.Child("bar").Get("foo"))

	// Shallow read-only: the nested object comes back raw and stays writable.
	o2 := reactive.ObjectOf("name", reactive.ObjectOf("age", 23))
	w2 := rt.ShallowReadonly(o2)
	if err := w2.Set("name", reactive.ObjectOf("age", 18)); err != nil {
		return err
	}
	name := w2.Get("name").(*reactive.Object)
	name.Set("age", name.Get("age").(int)+1)
	fmt.Fprintf(out, "shallowReadonly   O.name.age = %v\n", o2.Child("name").Get("age"))

	// Effects re-run on tracked writes; the computed recomputes lazily.
	state := rt.Reactive(reactive.ObjectOf("count", 0))
	double := reactive.NewComputed(rt, func() (int, error) {
		return state.Get("count").(int) * 2, nil
	})
	e := rt.CreateEffect(func() {
		v, _ := double.Get()
		fmt.Fprintf(out, "effect            double = %d\n", v)
	}, reactive.EffectName("print-double"))
	defer e.Stop()

	for i := 1; i <= 2; i++ {
		if err := state.Set("count", i); err != nil {
			return err
		}
	}
	st := rt.Stats()
	fmt.Fprintf(out, "stats             targets=%d depSets=%d links=%d\n", st.Targets, st.DepSets, st.Links)
	return nil
}
