package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ResolvedStep is one primitive action of a resolved job. All template
// references and expression slots have been resolved away.
type ResolvedStep struct {
	// DisplayName is the human-readable step label, may be empty.
	DisplayName string

	// Script is the shell command the step runs.
	Script string

	// Env is the resolved step environment.
	Env map[string]string
}

// ResolvedJob is the flattened output unit handed to the execution runtime:
// a name, an ordered list of resolved steps, and a resolved environment.
// Instances are immutable once produced.
type ResolvedJob struct {
	Name  string
	Steps []ResolvedStep
	Env   map[string]string
}

// Plan is the terminal output of a resolution run: the ordered set of
// resolved jobs. It is immutable once Finalized.
type Plan struct {
	Jobs []ResolvedJob
}

// Fingerprint returns a deterministic digest of the plan. Equal plans always
// produce equal fingerprints across runs and hosts, which makes the digest
// usable as a cheap reproducibility check for rendered output.
func (p Plan) Fingerprint() string {
	d := xxhash.New()
	for _, job := range p.Jobs {
		writeField(d, "job", job.Name)
		writeEnv(d, job.Env)
		for _, step := range job.Steps {
			writeField(d, "step", step.DisplayName)
			writeField(d, "script", step.Script)
			writeEnv(d, step.Env)
		}
	}
	return fmt.Sprintf("%016x", d.Sum64())
}

func writeField(d *xxhash.Digest, key, value string) {
	// Length-prefix to keep adjacent fields from colliding.
	_, _ = d.WriteString(fmt.Sprintf("%s:%d:%s;", key, len(value), value))
}

func writeEnv(d *xxhash.Digest, env map[string]string) {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(env[k])
		b.WriteByte('\n')
	}
	writeField(d, "env", b.String())
}
