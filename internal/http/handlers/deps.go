package handlers

import (
	"time"

	"nabilpos/internal/backend"
	"nabilpos/internal/journal"
	"nabilpos/internal/pos"
)

type Deps struct {
	Pos     *PosHandler
	Catalog *CatalogHandler
	Journal *JournalHandler
	Lock    *LockHandler
}

func NewDeps(screen *pos.Screen, store *journal.Store, client *backend.Client, printer pos.Printer, printTimeout time.Duration) *Deps {
	return &Deps{
		Pos:     &PosHandler{Screen: screen},
		Catalog: &CatalogHandler{Catalog: screen.Catalog},
		Journal: &JournalHandler{Store: store, Client: client, Printer: printer, PrintTimeout: printTimeout},
		Lock:    &LockHandler{Store: store},
	}
}
