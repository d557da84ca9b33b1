package handlers

import (
	"github.com/jmoiron/sqlx"

	"curio/internal/cache"
	"curio/internal/config"
	"curio/internal/repos"
	"curio/internal/services"
)

type Deps struct {
	CatalogHandler    *CatalogHandler
	CollectionHandler *CollectionHandler
	ActivityHandler   *ActivityHandler
	StaffHandler      *StaffHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, c *cache.Cache, notify services.Notifier) *Deps {
	catRepo := repos.NewCategoryRepo(db)
	itemRepo := repos.NewItemRepo(db)
	collRepo := repos.NewCollectionRepo(db)
	actRepo := repos.NewActivityRepo(db)

	catalogSvc := services.NewCatalogService(catRepo, itemRepo, c)
	collSvc := services.NewCollectionService(collRepo, itemRepo)
	finSvc := services.NewFinalizeService(db, collRepo, actRepo, c, notify)
	statusSvc := services.NewStatusService(db, actRepo, c, notify)

	return &Deps{
		CatalogHandler:    &CatalogHandler{Catalog: catalogSvc},
		CollectionHandler: &CollectionHandler{Coll: collSvc},
		ActivityHandler:   &ActivityHandler{Finalize: finSvc, Acts: actRepo},
		StaffHandler:      &StaffHandler{Acts: actRepo, Status: statusSvc, Catalog: catalogSvc},
	}
}
