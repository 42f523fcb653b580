package migration

import (
	"log"

	"github.com/swapspot/swapspot/internal/domain/model"
	"github.com/swapspot/swapspot/internal/infrastructure/persistence/database"
	"gorm.io/gorm"
)

func Up1() {
	db := database.GetDb()
	createTables(db)
}

func createTables(db *gorm.DB) {
	tables := []any{}

	tables = addNewTable(db, model.User{}, tables)
	tables = addNewTable(db, model.FriendRequest{}, tables)
	tables = addNewTable(db, model.Friendship{}, tables)
	tables = addNewTable(db, model.Item{}, tables)
	tables = addNewTable(db, model.Center{}, tables)
	tables = addNewTable(db, model.Front{}, tables)
	tables = addNewTable(db, model.Exchange{}, tables)
	tables = addNewTable(db, model.Box{}, tables)
	tables = addNewTable(db, model.Notification{}, tables)

	if len(tables) == 0 {
		return
	}

	if err := db.Migrator().CreateTable(tables...); err != nil {
		log.Printf("Error migrating: %v\n", err)
		return
	}
	log.Println("Tables Created")
}

func addNewTable(db *gorm.DB, model any, tables []any) []any {
	if !db.Migrator().HasTable(model) {
		tables = append(tables, model)
	}
	return tables
}
