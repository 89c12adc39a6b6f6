// parser.go
package formula

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
	"zombiezen.com/go/nix"
)

// ErrInvalid is returned when a formula fails validation
var ErrInvalid = errors.New("invalid formula")

// versionPattern pulls a version out of tag archive names such as
// v0.1.0.tar.gz or qcd-0.1.0.tar.xz
var versionPattern = regexp.MustCompile(`v?(\d+(?:\.\d+)+(?:[-.][0-9A-Za-z]+)*?)\.(?:tar\.gz|tgz|tar\.xz|txz|nar\.xz|nar)$`)

// Load reads a formula manifest. The format follows the extension:
// .yaml/.yml or .toml.
func Load(path string) (*Formula, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading formula: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return Parse(data, "yaml")
	case ".toml":
		return Parse(data, "toml")
	default:
		return nil, fmt.Errorf("%w: unsupported manifest extension %q", ErrInvalid, ext)
	}
}

// Parse decodes and validates a manifest in the given format
func Parse(data []byte, format string) (*Formula, error) {
	var f Formula
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parsing formula: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parsing formula: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalid, format)
	}

	if f.Version == "" {
		f.Version = VersionFromURL(f.URL)
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

var (
	// namePattern allows formula names that are safe as a single path element
	namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9@._+-]*$`)

	// versionSegment keeps the version a single path element under the Cellar
	versionSegment = regexp.MustCompile(`^[0-9A-Za-z][0-9A-Za-z._+-]*$`)
)

// ValidName reports whether name can be used as a formula name
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// Validate checks the fields every install step depends on
func (f *Formula) Validate() error {
	err := validation.ValidateStruct(f,
		validation.Field(&f.Name, validation.Required, validation.Match(namePattern)),
		validation.Field(&f.URL, validation.Required, validation.By(httpURL)),
		validation.Field(&f.Version,
			validation.Required.Error("is required when it cannot be read from the url"),
			validation.Match(versionSegment)),
		validation.Field(&f.SHA256, validation.Required, validation.By(func(any) error {
			_, err := f.Hash()
			return err
		})),
		validation.Field(&f.Script, validation.By(bareFileName)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

func httpURL(value any) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return validation.NewError("formula_url_scheme", "must be an http or https url")
	}
	return nil
}

func bareFileName(value any) error {
	s, _ := value.(string)
	if s != "" && (filepath.Base(s) != s || s == "." || s == "..") {
		return validation.NewError("formula_script_path", "must be a bare file name")
	}
	return nil
}

// Hash parses the declared content hash. A bare 64 character hex digest
// is read as sha256; anything else goes through the nix hash syntax
// (type:digest or SRI).
func (f *Formula) Hash() (nix.Hash, error) {
	s := strings.TrimSpace(f.SHA256)
	if s == "" {
		return nix.Hash{}, fmt.Errorf("%w: sha256 is required", ErrInvalid)
	}
	if len(s) == 64 && !strings.ContainsAny(s, ":-") {
		s = "sha256:" + strings.ToLower(s)
	}

	h, err := nix.ParseHash(s)
	if err != nil {
		return nix.Hash{}, fmt.Errorf("%w: sha256 %q: %v", ErrInvalid, f.SHA256, err)
	}
	if h.Type() != nix.SHA256 {
		return nix.Hash{}, fmt.Errorf("%w: sha256 %q is a %v hash", ErrInvalid, f.SHA256, h.Type())
	}
	return h, nil
}

// ArchiveName is the file name the source archive is cached under
func (f *Formula) ArchiveName() string {
	u, err := url.Parse(f.URL)
	if err != nil {
		return fmt.Sprintf("%s-%s.tar.gz", f.Name, f.Version)
	}
	base := path.Base(u.Path)
	if !strings.HasPrefix(base, f.Name) {
		base = f.Name + "-" + strings.TrimPrefix(base, "v")
	}
	return base
}

// VersionFromURL guesses the version from a tag archive URL, the way
// Homebrew does when a formula omits it
func VersionFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	m := versionPattern.FindStringSubmatch(path.Base(u.Path))
	if m == nil {
		return ""
	}
	return m[1]
}
