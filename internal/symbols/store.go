package symbols

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var separators = regexp.MustCompile(`[\n,;]+`)

// Store loads and saves the symbol universe from a plain text file.
type Store struct {
	Path            string
	DefaultExchange string
	Defaults        []string
}

// NewStore creates a store. An empty defaults list falls back to SET100.
func NewStore(path, defaultExchange string, defaults []string) *Store {
	if len(defaults) == 0 {
		defaults = SET100
	}
	return &Store{Path: path, DefaultExchange: defaultExchange, Defaults: defaults}
}

// Load returns the normalized symbols from the file. A missing file, or one
// with no usable symbols, yields the default list. Other read errors also
// yield the default list together with the error.
func (s *Store) Load() ([]string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return s.DefaultSymbols(), nil
		}
		return s.DefaultSymbols(), fmt.Errorf("read symbols file: %w", err)
	}
	syms := Normalize(Parse(string(data)), s.DefaultExchange)
	if len(syms) == 0 {
		return s.DefaultSymbols(), nil
	}
	return syms, nil
}

// DefaultSymbols returns the normalized default list.
func (s *Store) DefaultSymbols() []string {
	return Normalize(s.Defaults, s.DefaultExchange)
}

// Save normalizes symbols and writes them one per line, creating the parent directory.
func (s *Store) Save(symbols []string) ([]string, error) {
	syms := Normalize(symbols, s.DefaultExchange)
	if len(syms) == 0 {
		return nil, fmt.Errorf("no valid symbols to save")
	}
	if dir := filepath.Dir(s.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create symbols dir: %w", err)
		}
	}
	body := strings.Join(syms, "\n") + "\n"
	if err := os.WriteFile(s.Path, []byte(body), 0o644); err != nil {
		return nil, fmt.Errorf("write symbols file: %w", err)
	}
	return syms, nil
}

// Parse splits raw text on newlines, commas and semicolons, strips matching
// quotes, upper-cases, and drops blanks and duplicates keeping first occurrence.
func Parse(raw string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, p := range separators.Split(raw, -1) {
		sym := strings.ToUpper(stripQuotes(p))
		if sym == "" {
			continue
		}
		if _, ok := seen[sym]; ok {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	return out
}

// NormalizeSymbol returns EX:TICKER, prefixing bare tickers with defaultExchange.
// It returns "" when the exchange or ticker part is empty.
func NormalizeSymbol(symbol, defaultExchange string) string {
	sym := strings.ToUpper(stripQuotes(symbol))
	if sym == "" {
		return ""
	}
	if ex, ticker, ok := strings.Cut(sym, ":"); ok {
		ex = strings.ToUpper(stripQuotes(ex))
		ticker = strings.ToUpper(stripQuotes(ticker))
		if ex == "" || ticker == "" {
			return ""
		}
		return ex + ":" + ticker
	}
	ex := strings.ToUpper(strings.TrimSpace(defaultExchange))
	if ex == "" {
		ex = "SET"
	}
	return ex + ":" + sym
}

// Normalize applies NormalizeSymbol to each entry, dropping invalid and duplicate results.
func Normalize(symbols []string, defaultExchange string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, s := range symbols {
		ns := NormalizeSymbol(s, defaultExchange)
		if ns == "" {
			continue
		}
		if _, ok := seen[ns]; ok {
			continue
		}
		seen[ns] = struct{}{}
		out = append(out, ns)
	}
	return out
}

// Ticker strips the exchange prefix.
func Ticker(symbol string) string {
	if _, t, ok := strings.Cut(symbol, ":"); ok {
		return t
	}
	return symbol
}

func stripQuotes(token string) string {
	s := strings.TrimSpace(token)
	if len(s) >= 2 && s[0] == s[len(s)-1] && (s[0] == '"' || s[0] == '\'') {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}
