package internal

import (
	"os"
	"path/filepath"
)

type ScopeType string

const (
	ScopeGlobal  ScopeType = "global"
	ScopeProject ScopeType = "project"
)

const gitmemDir = ".gitmem"

type Scope struct {
	Type       ScopeType
	Path       string // working directory root
	GitmemPath string // .gitmem directory path
	StorePath  string // object/ref store root under .gitmem
}

func NewScope(typ ScopeType, root string) Scope {
	gp := filepath.Join(root, gitmemDir)
	return Scope{
		Type:       typ,
		Path:       root,
		GitmemPath: gp,
		StorePath:  filepath.Join(gp, "store"),
	}
}

func (s Scope) VectorPath() string {
	return filepath.Join(s.GitmemPath, "vectors")
}

func (s Scope) ConfigPath() string {
	return filepath.Join(s.GitmemPath, "config.yaml")
}

func (s Scope) DBPath() string {
	return filepath.Join(s.GitmemPath, "gitmem.db")
}

type ScopeResolver struct {
	homeDir string
}

func NewScopeResolver() *ScopeResolver {
	home, _ := os.UserHomeDir()
	return &ScopeResolver{homeDir: home}
}

func (r *ScopeResolver) Global() Scope {
	return NewScope(ScopeGlobal, r.homeDir)
}

func (r *ScopeResolver) Project() (Scope, bool) {
	cwd, err := os.Getwd()
	if err != nil {
		return Scope{}, false
	}
	return r.findProjectScope(cwd)
}

func (r *ScopeResolver) findProjectScope(dir string) (Scope, bool) {
	for {
		gp := filepath.Join(dir, gitmemDir)
		info, err := os.Stat(gp)
		if err == nil && info.IsDir() {
			return NewScope(ScopeProject, dir), true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Scope{}, false
		}
		dir = parent
	}
}

func (r *ScopeResolver) Resolve(explicit string) Scope {
	if explicit == "global" {
		return r.Global()
	}
	if scope, ok := r.Project(); ok {
		return scope
	}
	return r.Global()
}

func (r *ScopeResolver) Cascade() []Scope {
	scopes := []Scope{}
	if scope, ok := r.Project(); ok {
		scopes = append(scopes, scope)
	}
	scopes = append(scopes, r.Global())
	return scopes
}

func (r *ScopeResolver) EnvVars(scope Scope, agentID, version string) map[string]string {
	bin, _ := os.Executable()
	return map[string]string{
		"GITMEM_SCOPE":      string(scope.Type),
		"GITMEM_SCOPE_PATH": scope.GitmemPath,
		"GITMEM_ROOT":       scope.Path,
		"GITMEM_AGENT":      agentID,
		"GITMEM_CONFIG":     scope.ConfigPath(),
		"GITMEM_VERSION":    version,
		"GITMEM_BIN":        bin,
	}
}
