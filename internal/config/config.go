package config

import (
	"log"
	"os"
	"time"
)

type Config struct {
	Addr         string
	BackendURL   string
	BackendToken string
	JournalDSN   string
	SpoolDir     string
	LogFile      string
	TerminalName string
	TerminalPIN  string

	ShiftPoll     time.Duration
	EnterDebounce time.Duration
	PrintTimeout  time.Duration
	SpoolTimeout  time.Duration
}

func Load() Config {
	cfg := Config{
		Addr:         getenv("POS_ADDR", ":8090"),
		BackendURL:   getenv("BACKEND_URL", "http://localhost:8000"),
		BackendToken: os.Getenv("BACKEND_TOKEN"),
		JournalDSN:   getenv("JOURNAL_DSN", "posterm.db"), // sqlite file in project root
		SpoolDir:     getenv("SPOOL_DIR", "./spool"),
		LogFile:      getenv("LOG_FILE", "./posterm.log"),
		TerminalName: getenv("TERMINAL_NAME", "counter-1"),
		TerminalPIN:  getenv("TERMINAL_PIN", "1234"),

		ShiftPoll:     getdur("SHIFT_POLL", 30*time.Second),
		EnterDebounce: getdur("ENTER_DEBOUNCE", 300*time.Millisecond),
		PrintTimeout:  getdur("PRINT_TIMEOUT", 20*time.Second),
		SpoolTimeout:  getdur("SPOOL_TIMEOUT", 8*time.Second),
	}
	log.Printf("[config] POS_ADDR=%s BACKEND_URL=%s JOURNAL_DSN=%s TERMINAL_NAME=%s LOG_FILE=%s",
		cfg.Addr, cfg.BackendURL, cfg.JournalDSN, cfg.TerminalName, cfg.LogFile)
	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getdur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[config] bad %s=%q, using %s", key, v, def)
		return def
	}
	return d
}
