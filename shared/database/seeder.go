package database

import (
	"errors"
	"log"

	"shelfwise-backend/shared/database/models"
	utils "shelfwise-backend/shared/utils/auth"
	"shelfwise-backend/shared/utils/pathutil"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SeedDatabase creates a demo account with a ready-to-browse workspace:
// a small location tree, a few boxes and a pool of QR codes. Seeding is
// idempotent; an existing demo account short-circuits.
func SeedDatabase() error {
	log.Println("🌱 Checking database seed data...")

	demo, created, err := seedDemoUser("demo@shelfwise.app", "demo1234", "Demo User")
	if err != nil {
		return err
	}
	if !created {
		log.Println("✅ Database seed data is up to date")
		return nil
	}

	workspace := models.Workspace{Name: "Home", OwnerID: demo.ID}
	if err := DB.Create(&workspace).Error; err != nil {
		return err
	}
	member := models.WorkspaceMember{
		WorkspaceID: workspace.ID,
		UserID:      demo.ID,
		Role:        models.RoleOwner,
	}
	if err := DB.Create(&member).Error; err != nil {
		return err
	}

	locations, err := seedLocations(workspace.ID)
	if err != nil {
		return err
	}

	boxesCreated, err := seedBoxes(workspace.ID, locations)
	if err != nil {
		return err
	}

	codesCreated, err := seedQRCodes(workspace.ID)
	if err != nil {
		return err
	}

	log.Printf("✅ Database seeding completed (%d locations, %d boxes, %d QR codes created)",
		len(locations), boxesCreated, codesCreated)
	return nil
}

// seedDemoUser creates the demo account if it does not exist yet
func seedDemoUser(email, password, fullName string) (*models.Profile, bool, error) {
	var existing models.Profile
	err := DB.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, false, err
	}

	profile := models.Profile{
		Email:           email,
		Password:        hash,
		FullName:        fullName,
		ThemePreference: models.ThemeSystem,
	}
	if err := DB.Create(&profile).Error; err != nil {
		return nil, false, err
	}

	log.Printf("✅ Demo account created: %s", email)
	return &profile, true, nil
}

// seedLocations builds a two-level location tree and returns the leaf
// locations keyed by name
func seedLocations(workspaceID uuid.UUID) (map[string]models.Location, error) {
	result := make(map[string]models.Location)

	roots := []string{"Garage", "Attic", "Basement"}
	children := map[string][]string{
		"Garage": {"Shelf 1", "Shelf 2", "Workbench"},
		"Attic":  {"Christmas Decorations", "Old Clothes"},
	}

	for _, rootName := range roots {
		root := models.Location{
			WorkspaceID: workspaceID,
			Name:        rootName,
			Path:        pathutil.BuildPath("", rootName),
		}
		if err := DB.Create(&root).Error; err != nil {
			return nil, err
		}
		result[rootName] = root

		for _, childName := range children[rootName] {
			child := models.Location{
				WorkspaceID: workspaceID,
				Name:        childName,
				Path:        pathutil.BuildPath(root.Path, childName),
				ParentID:    &root.ID,
			}
			if err := DB.Create(&child).Error; err != nil {
				return nil, err
			}
			result[childName] = child
		}
	}

	return result, nil
}

// seedBoxes places a handful of example boxes in the seeded tree
func seedBoxes(workspaceID uuid.UUID, locations map[string]models.Location) (int, error) {
	type seedBox struct {
		name        string
		description string
		tags        []string
		location    string
	}

	boxes := []seedBox{
		{"Power Tools", "Drill, jigsaw and sanders", []string{"tools", "electric"}, "Shelf 1"},
		{"Hand Tools", "Hammers and screwdrivers", []string{"tools"}, "Shelf 2"},
		{"Tree Ornaments", "Glass baubles, handle with care", []string{"fragile", "seasonal"}, "Christmas Decorations"},
		{"Winter Jackets", "", []string{"clothes", "seasonal"}, "Old Clothes"},
		{"Misc Cables", "Unsorted chargers and adapters", []string{"electronics"}, ""},
	}

	created := 0
	for _, b := range boxes {
		shortID, err := utils.GenerateShortID("BX")
		if err != nil {
			return created, err
		}

		box := models.Box{
			WorkspaceID: workspaceID,
			Name:        b.name,
			Description: b.description,
			ShortID:     shortID,
		}
		box.SetTags(b.tags)
		if loc, ok := locations[b.location]; ok {
			box.LocationID = &loc.ID
		}

		if err := DB.Create(&box).Error; err != nil {
			return created, err
		}
		created++
	}

	return created, nil
}

// seedQRCodes generates a pool of unassigned codes ready for printing
func seedQRCodes(workspaceID uuid.UUID) (int, error) {
	created := 0
	for i := 0; i < 8; i++ {
		shortID, err := utils.GenerateShortID("QR")
		if err != nil {
			return created, err
		}

		code := models.QrCode{
			WorkspaceID: workspaceID,
			ShortID:     shortID,
			Status:      models.QRStatusGenerated,
		}
		if err := DB.Create(&code).Error; err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
