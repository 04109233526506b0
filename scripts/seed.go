package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/radworks/reportassist/internal/adapters/database"
	"github.com/radworks/reportassist/internal/adapters/search"
	"github.com/radworks/reportassist/internal/domain/entities"
	"github.com/radworks/reportassist/internal/infrastructure/clients/postgres"
	"github.com/radworks/reportassist/internal/infrastructure/clients/typesense"
	"github.com/radworks/reportassist/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	var guidelineRepo *search.GuidelineAdapter
	if err == nil {
		guidelineRepo = search.NewGuidelineAdapter(tsClient)
		guidelineRepo.InitSchema(context.Background())
	}

	reportRepo := database.NewReportAdapter(pgClient)
	revisionRepo := database.NewRevisionAdapter(pgClient)

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				report_revisions,
				reports
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	// 1. Seed reports with representative draft content
	reports := []entities.Report{
		{
			ID:         uuid.New().String(),
			PatientRef: "PAT-10021",
			ScanType:   "CT Chest",
			ReportContent: "FINDINGS:\nSolitary pulmonary nodule measures ____ mm in the {{lobe}}.\n" +
				"No pleural effusion.\n\nIMPRESSION:\nFollow-up per Fleischner criteria.",
			Status:    entities.ReportStatusDraft,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
		{
			ID:         uuid.New().String(),
			PatientRef: "PAT-10034",
			ScanType:   "MRI Brain",
			ReportContent: "FINDINGS:\nNo acute intracranial abnormality. Scattered T2/FLAIR " +
				"hyperintensities consistent with chronic microvascular change.\n\nIMPRESSION:\nUnremarkable for age.",
			Status:    entities.ReportStatusGenerated,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
		{
			ID:            uuid.New().String(),
			PatientRef:    "PAT-10055",
			ScanType:      "X-Ray Wrist",
			ReportContent: "FINDINGS:\nTransverse fracture of the distal radius with ____ of dorsal angulation.",
			Status:        entities.ReportStatusDraft,
			IsPinned:      true,
			CreatedAt:     time.Now(),
			UpdatedAt:     time.Now(),
		},
	}

	for _, r := range reports {
		if err := reportRepo.Create(ctx, &r); err != nil {
			log.Printf("Failed to create report for %s: %v", r.PatientRef, err)
			continue
		}
		rev := &entities.ReportRevision{
			ID:         uuid.New().String(),
			ReportID:   r.ID,
			Content:    r.ReportContent,
			EditSource: entities.EditSourceGeneration,
			CreatedAt:  time.Now(),
		}
		if err := revisionRepo.Append(ctx, rev); err != nil {
			log.Printf("Failed to record initial revision for %s: %v", r.ID, err)
		}
	}

	log.Printf("Seeded %d reports", len(reports))

	// 2. Seed reference guidelines into the search index
	if guidelineRepo == nil {
		log.Println("Typesense unavailable, skipping guideline seeding")
		return
	}

	guidelines := []entities.Guideline{
		{
			ID:        uuid.New().String(),
			Condition: "Solitary pulmonary nodule",
			Modality:  "CT",
			Summary:   "Incidental nodule follow-up depends on size, morphology, and patient risk profile.",
			ClassificationSystems: []string{
				"Fleischner Society 2017",
				"Lung-RADS v2022",
			},
			MeasurementProtocols: []string{
				"Average of long and short axis on the same axial slice, rounded to the nearest millimeter",
			},
			FollowUpRecommendation: "Nodules under 6 mm in low-risk patients need no routine follow-up.",
			Sources:                []string{"Fleischner Society", "ACR"},
		},
		{
			ID:        uuid.New().String(),
			Condition: "Thyroid nodule",
			Modality:  "Ultrasound",
			Summary:   "Sonographic risk stratification drives FNA thresholds.",
			ClassificationSystems: []string{
				"ACR TI-RADS",
			},
			ImagingCharacteristics: []string{
				"Composition, echogenicity, shape, margin, echogenic foci",
			},
			FollowUpRecommendation: "TR3 nodules 2.5 cm or larger warrant FNA; 1.5 cm or larger warrant follow-up.",
			Sources:                []string{"ACR"},
		},
		{
			ID:        uuid.New().String(),
			Condition: "Adrenal incidentaloma",
			Modality:  "CT",
			Summary:   "Lesion density and washout distinguish adenoma from indeterminate lesions.",
			MeasurementProtocols: []string{
				"Unenhanced attenuation in Hounsfield units over a region of interest covering two thirds of the lesion",
			},
			DifferentialDiagnoses: []string{
				"Adenoma", "Myelolipoma", "Pheochromocytoma", "Metastasis",
			},
			FollowUpRecommendation: "Lesions under 10 HU unenhanced are diagnostic of lipid-rich adenoma and need no follow-up.",
			Sources:                []string{"ACR Incidental Findings Committee"},
		},
	}

	for _, g := range guidelines {
		if err := guidelineRepo.Index(ctx, &g); err != nil {
			log.Printf("Failed to index guideline %q: %v", g.Condition, err)
		}
	}

	log.Printf("Indexed %d guidelines", len(guidelines))
}
