//Package config reads the parameters of a replica-exchange run from a
//config.ini file. The file is a list of key = value lines, with # comments.
//String values can be given with or without quotes. Each line is brought to
//TOML form and the file is decoded with go-toml. Keys absent from the file keep
//their defaults.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml"
)

//Config holds all the parameters of a run.
type Config struct {
	//MC
	TMin    float64 `toml:"mc_tmin"`
	TMax    float64 `toml:"mc_tmax"`
	NSteps  int     `toml:"mc_nsteps"` //exchange rounds
	NExc    int     `toml:"mc_nexc"`   //MC steps between exchanges
	NHot    int     `toml:"mc_nhot"`   //MC steps at TMax before the sampling
	NWrite  int     `toml:"mc_nwrite"` //rounds between trajectory frames
	Dx      float64 `toml:"mc_dx"`
	Seed    int64   `toml:"mc_seed"`
	Ladder  string  `toml:"mc_ladder"`
	Pairing string  `toml:"mc_pairing"`

	//Restraints
	Kappa       float64 `toml:"kappa"`
	KBond       float64 `toml:"k_bond"`
	KEV         float64 `toml:"k_ev"`
	KBox        float64 `toml:"k_box"`
	KZ          float64 `toml:"k_z"`
	BeadRadius  float64 `toml:"bead_radius"`
	NBeads      int     `toml:"nbeads"`
	NReplicas   int     `toml:"nreplicas"`
	BoxSide     float64 `toml:"box_side"`
	ZTarget     float64 `toml:"z_target"`
	ScoreCutoff float64 `toml:"score_cutoff"`

	//WTE
	DoWTE      bool    `toml:"do_wte"`
	WTEW0      float64 `toml:"wte_w0"`
	WTESigma   float64 `toml:"wte_sigma"`
	WTEGamma   float64 `toml:"wte_gamma"`
	WTEEMin    float64 `toml:"wte_emin"`
	WTEEMax    float64 `toml:"wte_emax"`
	WTERestart bool    `toml:"wte_restart"`

	//I/O
	TrajFile  string `toml:"traj_file"`
	LogFile   string `toml:"log_file"`
	RexFile   string `toml:"rex_file"`
	Store     string `toml:"store"`
	StorePath string `toml:"store_path"`
	Plot      string `toml:"plot"`
	OutDir    string `toml:"out_dir"`
}

//Default returns the configuration used for the keys not given.
func Default() *Config {
	return &Config{
		TMin:        1,
		TMax:        5,
		NSteps:      100,
		NExc:        50,
		NHot:        100,
		NWrite:      10,
		Dx:          0.3,
		Seed:        1,
		Ladder:      "geometric",
		Pairing:     "alternate",
		Kappa:       10,
		KBond:       10,
		KEV:         10,
		KBox:        10,
		KZ:          10,
		BeadRadius:  0.5,
		NBeads:      10,
		NReplicas:   4,
		BoxSide:     10,
		ZTarget:     0,
		ScoreCutoff: math.Inf(1),
		WTEW0:       0.1,
		WTESigma:    1,
		WTEGamma:    10,
		WTEEMin:     0,
		WTEEMax:     100,
		TrajFile:    "traj",
		LogFile:     "log",
		RexFile:     "rex.log",
		StorePath:   "runs.db",
		OutDir:      ".",
	}
}

//Load reads the file in path, over the defaults, and validates the result.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()
	in, err := normalize(f)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	tree, err := toml.LoadReader(in)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg := new(Config)
	if err := tree.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config %s: %w", path, err)
	}
	fillDefaults(cfg, tree)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

//normalize rewrites the key = value lines read from r as TOML. Unquoted values of
//string keys get quoted, values of float keys are written as floats, and comments
//after a value are dropped. Other lines are left as they are.
func normalize(r io.Reader) (io.Reader, error) {
	kinds := make(map[string]reflect.Kind)
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		kinds[t.Field(i).Tag.Get("toml")] = t.Field(i).Type.Kind()
	}
	var b strings.Builder
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		b.WriteString(normalizeLine(sc.Text(), kinds))
		b.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return strings.NewReader(b.String()), nil
}

func normalizeLine(line string, kinds map[string]reflect.Kind) string {
	t := strings.TrimSpace(line)
	eq := strings.IndexByte(t, '=')
	if t == "" || t[0] == '#' || t[0] == '[' || eq < 0 {
		return line
	}
	key := strings.TrimSpace(t[:eq])
	val := strings.TrimSpace(t[eq+1:])
	if val == "" || strings.ContainsAny(val[:1], "\"'[{") {
		return line
	}
	if i := strings.IndexByte(val, '#'); i >= 0 {
		val = strings.TrimSpace(val[:i])
	}
	kind, known := kinds[key]
	switch {
	case kind == reflect.String:
		val = strconv.Quote(val)
	case kind == reflect.Float64:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			val = floatLiteral(f)
		}
	case kind == reflect.Bool:
		if v, err := strconv.ParseBool(val); err == nil {
			val = strconv.FormatBool(v)
		}
	case !known:
		if _, err := strconv.ParseFloat(val, 64); err != nil {
			if _, err := strconv.ParseBool(val); err != nil {
				val = strconv.Quote(val)
			}
		}
	}
	return key + " = " + val
}

func floatLiteral(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

//fillDefaults sets every field whose key is absent from tree to its default.
func fillDefaults(cfg *Config, tree *toml.Tree) {
	def := reflect.ValueOf(Default()).Elem()
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if key := t.Field(i).Tag.Get("toml"); !tree.Has(key) {
			v.Field(i).Set(def.Field(i))
		}
	}
}

//Validate returns an error describing the first inconsistent parameter found, or nil.
func (C *Config) Validate() error {
	switch {
	case !(C.TMin > 0):
		return errors.New("mc_tmin must be positive")
	case !(C.TMax >= C.TMin):
		return errors.New("mc_tmax must not be smaller than mc_tmin")
	case C.NExc <= 0:
		return errors.New("mc_nexc must be positive")
	case C.NSteps < 0 || C.NHot < 0:
		return errors.New("mc_nsteps and mc_nhot can't be negative")
	case C.NWrite <= 0:
		return errors.New("mc_nwrite must be positive")
	case C.NReplicas <= 0:
		return errors.New("nreplicas must be positive")
	case C.NBeads <= 0:
		return errors.New("nbeads must be positive")
	case !(C.Dx > 0) || !(C.BeadRadius > 0):
		return errors.New("mc_dx and bead_radius must be positive")
	case math.IsNaN(C.ScoreCutoff):
		return errors.New("score_cutoff can't be NaN")
	}
	if C.Ladder != "geometric" && C.Ladder != "linear" {
		return fmt.Errorf("unknown mc_ladder %q", C.Ladder)
	}
	if C.Pairing != "alternate" && C.Pairing != "random" {
		return fmt.Errorf("unknown mc_pairing %q", C.Pairing)
	}
	switch C.Store {
	case "", "memory", "sqlite":
	default:
		return fmt.Errorf("unknown store %q", C.Store)
	}
	if C.DoWTE {
		if !(C.WTEEMax > C.WTEEMin) {
			return errors.New("wte_emax must be larger than wte_emin")
		}
		if !(C.WTESigma > 0) || !(C.WTEGamma > 1) || !(C.WTEW0 > 0) {
			return errors.New("wte_sigma and wte_w0 must be positive, wte_gamma larger than 1")
		}
	}
	return nil
}
