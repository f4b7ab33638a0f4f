package skill

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"weeklyreport/internal/report"
)

// 技能包文件名
const (
	FileSkill    = "skill.md"
	FileTemplate = "report_template.md"
	FileRubric   = "rubric.yaml"
)

//go:embed packs
var builtinPacks embed.FS

// Registry 技能注册表，可并发使用；Reload 整体替换已加载的技能
type Registry struct {
	dir    string
	logger *zap.Logger

	mu     sync.RWMutex
	skills map[string]*Skill
	names  []string
}

// NewRegistry 加载内置技能包；dir 非空时再加载目录下的技能包（同名覆盖内置）
func NewRegistry(dir string, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{dir: dir, logger: logger}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Dir 技能包目录，为空表示只有内置技能
func (r *Registry) Dir() string { return r.dir }

// Reload 重新读取内置与目录下的技能包；失败时保留原有技能
func (r *Registry) Reload() error {
	skills, names, err := loadAll(r.dir, r.logger)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.skills, r.names = skills, names
	r.mu.Unlock()
	return nil
}

func loadAll(dir string, logger *zap.Logger) (map[string]*Skill, []string, error) {
	r := &Registry{skills: make(map[string]*Skill)}
	r.add(passthroughSkill())

	packs, err := fs.Sub(builtinPacks, "packs")
	if err != nil {
		return nil, nil, err
	}
	if err := r.loadDir(packs, "builtin", logger); err != nil {
		return nil, nil, fmt.Errorf("load builtin skills: %w", err)
	}

	if dir != "" {
		info, err := os.Stat(dir)
		switch {
		case errors.Is(err, os.ErrNotExist):
			logger.Warn("skills dir not found, using builtin skills only", zap.String("dir", dir))
		case err != nil:
			return nil, nil, fmt.Errorf("stat skills dir: %w", err)
		case !info.IsDir():
			return nil, nil, fmt.Errorf("skills dir %s is not a directory", dir)
		default:
			if err := r.loadDir(os.DirFS(dir), dir, logger); err != nil {
				return nil, nil, err
			}
		}
	}
	return r.skills, r.names, nil
}

func (r *Registry) loadDir(fsys fs.FS, source string, logger *zap.Logger) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := NormalizeName(e.Name())
		if name == NameNone {
			return fmt.Errorf("skill pack %q: name is reserved", e.Name())
		}
		if _, err := fs.Stat(fsys, path.Join(e.Name(), FileSkill)); err != nil {
			continue
		}
		sub, err := fs.Sub(fsys, e.Name())
		if err != nil {
			return err
		}
		s, err := LoadPack(sub, name)
		if err != nil {
			return err
		}
		if source == "builtin" {
			s.Source = source
		} else {
			s.Source = filepath.Join(source, e.Name())
		}
		r.add(s)
		logger.Debug("skill loaded", zap.String("name", s.Name), zap.String("source", s.Source))
	}
	return nil
}

func (r *Registry) add(s *Skill) {
	if _, ok := r.skills[s.Name]; !ok {
		r.names = append(r.names, s.Name)
	}
	r.skills[s.Name] = s
}

// Get 按名称查找技能
func (r *Registry) Get(name string) (*Skill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.skills[NormalizeName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSkill, strings.TrimSpace(name))
	}
	return s, nil
}

// List 全部技能：none 在前，其余按名称排序
func (r *Registry) List() []*Skill {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.names))
	for _, n := range r.names {
		if n != NameNone {
			names = append(names, n)
		}
	}
	sort.Strings(names)

	out := []*Skill{r.skills[NameNone]}
	for _, n := range names {
		out = append(out, r.skills[n])
	}
	return out
}

// LoadPack 从目录读取一个技能包；report_template.md、rubric.yaml 可缺省
func LoadPack(fsys fs.FS, name string) (*Skill, error) {
	raw, err := fs.ReadFile(fsys, FileSkill)
	if err != nil {
		return nil, fmt.Errorf("skill %s: %w", name, err)
	}
	meta, body, err := splitFrontmatter(raw)
	if err != nil {
		return nil, fmt.Errorf("skill %s: %w", name, err)
	}

	s := &Skill{
		Name:         name,
		Title:        meta.Title,
		Description:  meta.Description,
		Instructions: strings.TrimSpace(body),
		Template:     report.DefaultTemplate(),
	}
	if s.Title == "" {
		s.Title = name
	}

	if data, err := fs.ReadFile(fsys, FileTemplate); err == nil {
		s.Template = report.NewTemplate(string(data))
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("skill %s: %w", name, err)
	}

	if data, err := fs.ReadFile(fsys, FileRubric); err == nil {
		rubric, err := ParseRubric(data)
		if err != nil {
			return nil, fmt.Errorf("skill %s: %w", name, err)
		}
		s.Rubric = rubric
		s.RubricText = strings.TrimSpace(string(data))
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("skill %s: %w", name, err)
	}
	return s, nil
}

var frontmatterDelim = []byte("---")

// splitFrontmatter 拆分 skill.md 的 YAML 头和正文；没有 YAML 头时整份文件都是正文
func splitFrontmatter(raw []byte) (Metadata, string, error) {
	var meta Metadata
	text := bytes.TrimPrefix(raw, []byte("\ufeff"))
	if !bytes.HasPrefix(text, frontmatterDelim) {
		return meta, string(text), nil
	}
	rest := text[len(frontmatterDelim):]
	end := bytes.Index(rest, append([]byte("\n"), frontmatterDelim...))
	if end < 0 {
		return meta, "", errors.New("unterminated frontmatter")
	}
	if err := yaml.Unmarshal(rest[:end], &meta); err != nil {
		return meta, "", fmt.Errorf("parse frontmatter: %w", err)
	}
	body := rest[end+1+len(frontmatterDelim):]
	return meta, string(body), nil
}
