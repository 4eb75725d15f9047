package main

import (
	"context"
	"encoding/csv"
	"log"
	"os"
	"strconv"
	"strings"

	"learnhub/config"
	"learnhub/database"
	"learnhub/logger"
	"learnhub/models"
	courseModels "learnhub/models/course"
	"learnhub/services/gamification"

	"gorm.io/gorm"
)

// Imports a course catalog from CSV, one row per lesson:
//
//	instructorEmail,course,description,price,currency,module,moduleOrder,lesson,lessonOrder,duration,videoUrl,publish
//
// Rows are matched by titles, so re-running the import updates in place.
func main() {
	config.LoadConfig()
	database.ConnectDb()
	db := database.Database.Db

	path := "catalog.csv"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	file, err := os.Open(path)
	if err != nil {
		log.Fatalf("Failed to open CSV file: %v", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		log.Fatalf("Failed to read CSV: %v", err)
	}
	if len(records) < 2 {
		log.Fatal("CSV file is empty or has only headers")
	}

	headerIndex := make(map[string]int)
	for i, h := range records[0] {
		headerIndex[strings.TrimSpace(h)] = i
	}
	log.Printf("Total rows to import: %d", len(records)-1)

	courses := map[string]*courseModels.Course{}
	modules := map[string]*courseModels.Module{}
	inserted, updated, skipped := 0, 0, 0

	for i, row := range records[1:] {
		instructorEmail := strings.ToLower(getField(row, headerIndex, "instructorEmail"))
		courseTitle := getField(row, headerIndex, "course")
		moduleTitle := getField(row, headerIndex, "module")
		lessonTitle := getField(row, headerIndex, "lesson")
		publish := strings.EqualFold(getField(row, headerIndex, "publish"), "true")

		if courseTitle == "" || moduleTitle == "" || lessonTitle == "" {
			log.Printf("Row %d: course, module and lesson are required, skipping", i+2)
			skipped++
			continue
		}

		course, ok := courses[courseTitle]
		if !ok {
			var instructor models.User
			if err := db.Where("email = ? AND role IN ?", instructorEmail, []string{models.RoleInstructor, models.RoleAdmin}).First(&instructor).Error; err != nil {
				log.Printf("Row %d: instructor %q not found, skipping", i+2, instructorEmail)
				skipped++
				continue
			}
			course, err = upsertCourse(db, courseModels.Course{
				Title:        courseTitle,
				Description:  getField(row, headerIndex, "description"),
				InstructorID: instructor.ID,
				Price:        int64(parseInt(getField(row, headerIndex, "price"))),
				Currency:     strings.ToUpper(getField(row, headerIndex, "currency")),
			}, publish)
			if err != nil {
				log.Fatalf("Row %d: saving course %q: %v", i+2, courseTitle, err)
			}
			courses[courseTitle] = course
		}

		key := courseTitle + "\x00" + moduleTitle
		module, ok := modules[key]
		if !ok {
			module = &courseModels.Module{}
			err := db.Where(courseModels.Module{CourseID: course.ID, Title: moduleTitle}).
				Attrs(courseModels.Module{OrderIndex: parseInt(getField(row, headerIndex, "moduleOrder"))}).
				FirstOrCreate(module).Error
			if err != nil {
				log.Fatalf("Row %d: saving module %q: %v", i+2, moduleTitle, err)
			}
			if err := db.Model(module).Update("is_published", publish).Error; err != nil {
				log.Fatalf("Row %d: publishing module %q: %v", i+2, moduleTitle, err)
			}
			modules[key] = module
		}

		fields := map[string]interface{}{
			"duration_seconds": parseInt(getField(row, headerIndex, "duration")),
			"video_url":        getField(row, headerIndex, "videoUrl"),
			"order_index":      parseInt(getField(row, headerIndex, "lessonOrder")),
			"is_published":     publish,
		}
		var existing courseModels.Lesson
		err := db.Where("module_id = ? AND title = ? AND is_deleted = ?", module.ID, lessonTitle, false).Limit(1).Find(&existing).Error
		if err != nil {
			log.Fatalf("Row %d: loading lesson %q: %v", i+2, lessonTitle, err)
		}
		if existing.ID == 0 {
			lesson := courseModels.Lesson{CourseID: course.ID, ModuleID: module.ID, Title: lessonTitle}
			if err := db.Create(&lesson).Error; err != nil {
				log.Printf("Row %d: inserting lesson %q: %v", i+2, lessonTitle, err)
				continue
			}
			existing = lesson
			inserted++
		} else {
			updated++
		}
		if err := db.Model(&existing).Updates(fields).Error; err != nil {
			log.Printf("Row %d: updating lesson %q: %v", i+2, lessonTitle, err)
		}
	}

	appLog, err := logger.New(config.AppConfig.LogMode, config.AppConfig.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	if err := gamification.New(db, appLog, nil, nil, nil).SeedDefaultBadges(context.Background()); err != nil {
		log.Printf("Seeding default badges failed: %v", err)
	}

	log.Printf("=== Import Complete ===")
	log.Printf("Lessons inserted: %d", inserted)
	log.Printf("Lessons updated: %d", updated)
	log.Printf("Rows skipped: %d", skipped)
}

func upsertCourse(db *gorm.DB, in courseModels.Course, publish bool) (*courseModels.Course, error) {
	if in.Currency == "" {
		in.Currency = "INR"
	}
	var course courseModels.Course
	if err := db.Where("title = ? AND instructor_id = ? AND is_deleted = ?", in.Title, in.InstructorID, false).
		Limit(1).Find(&course).Error; err != nil {
		return nil, err
	}
	if course.ID == 0 {
		course = in
		if err := db.Create(&course).Error; err != nil {
			return nil, err
		}
	}
	// Price and publication go through Updates so zero values are written.
	err := db.Model(&course).Updates(map[string]interface{}{
		"description":  in.Description,
		"price":        in.Price,
		"currency":     in.Currency,
		"is_published": publish,
	}).Error
	return &course, err
}

// getField safely gets a field from the row by header name
func getField(row []string, headerIndex map[string]int, field string) string {
	if idx, ok := headerIndex[field]; ok && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

// parseInt converts string to int, treating bad input as zero
func parseInt(s string) int {
	val, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return val
}
