// Command seed populates the database with a realistic demo dataset:
// organizations, a category tree, vendors, tenders in every lifecycle
// stage, bids, evaluations, contracts with milestones and reviews.
// Running it against a non-empty database is a no-op.
package main

import (
	"fmt"
	"time"

	"tender-service/internal/model"
	"tender-service/pkg/config"
	"tender-service/pkg/database"
	"tender-service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load("tender-service")
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: cfg.ServiceName + "-seed",
	}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()

	db, err := database.InitDB(&cfg.DB)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.MigrateModels(model.All()...); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	var existing int64
	if err := db.Model(&model.Organization{}).Count(&existing).Error; err != nil {
		log.Fatal("Failed to inspect database", zap.Error(err))
	}
	if existing > 0 {
		log.Info("Database already seeded, nothing to do", zap.Int64("organizations", existing))
		return
	}

	if err := seed(db, log); err != nil {
		log.Fatal("Seeding failed", zap.Error(err))
	}
	log.Info("Successfully seeded database")
}

func seed(db *gorm.DB, log *zap.Logger) error {
	categories, err := createCategories(db)
	if err != nil {
		return err
	}
	log.Info("Created categories", zap.Int("count", len(categories)))

	orgs, err := createOrganizations(db)
	if err != nil {
		return err
	}
	log.Info("Created organizations", zap.Int("count", len(orgs)))

	orgUsers, vendorUsers, err := createUsers(db, orgs)
	if err != nil {
		return err
	}
	log.Info("Created users", zap.Int("count", 1+len(orgUsers)+len(vendorUsers)))

	vendors, err := createVendors(db, vendorUsers, categories)
	if err != nil {
		return err
	}
	log.Info("Created vendors", zap.Int("count", len(vendors)))

	tenders, err := createTenders(db, orgs, categories, orgUsers)
	if err != nil {
		return err
	}
	log.Info("Created tenders", zap.Int("count", len(tenders)))

	if err := createTenderDocuments(db, tenders); err != nil {
		return err
	}
	if err := createAmendments(db, tenders); err != nil {
		return err
	}

	bids, err := createBids(db, tenders, vendors)
	if err != nil {
		return err
	}
	log.Info("Created bids", zap.Int("count", len(bids)))

	if err := createBidDocuments(db, bids, vendors); err != nil {
		return err
	}
	if err := createClarifications(db, tenders, vendors); err != nil {
		return err
	}
	if err := createEvaluations(db, tenders, bids, orgUsers); err != nil {
		return err
	}

	contracts, err := createContracts(db, tenders, bids)
	if err != nil {
		return err
	}
	log.Info("Created contracts", zap.Int("count", len(contracts)))

	if err := createMilestones(db, contracts); err != nil {
		return err
	}
	if err := createReviews(db, contracts, orgUsers, vendors); err != nil {
		return err
	}
	if err := createNotifications(db, vendorUsers, tenders); err != nil {
		return err
	}
	return nil
}

func createCategories(db *gorm.DB) (map[string]*model.TenderCategory, error) {
	data := []struct {
		name   string
		icon   string
		parent string
	}{
		{"Construction & Infrastructure", "building", ""},
		{"Roads & Highways", "road", "Construction & Infrastructure"},
		{"Buildings", "office", "Construction & Infrastructure"},
		{"Bridges & Tunnels", "bridge", "Construction & Infrastructure"},
		{"IT & Technology", "computer", ""},
		{"Software Development", "code", "IT & Technology"},
		{"Hardware & Equipment", "server", "IT & Technology"},
		{"Consulting Services", "briefcase", ""},
		{"Medical Equipment", "medical", ""},
		{"Office Supplies", "pencil", ""},
		{"Security Services", "shield", ""},
		{"Cleaning & Maintenance", "broom", ""},
		{"Transportation & Logistics", "truck", ""},
		{"Electrical Works", "bolt", ""},
		{"Plumbing & HVAC", "wrench", ""},
	}

	categories := make(map[string]*model.TenderCategory, len(data))
	for _, c := range data {
		category := &model.TenderCategory{
			Name:        c.name,
			Icon:        c.icon,
			Description: c.name + " related tenders and procurement",
		}
		if c.parent != "" {
			category.ParentID = &categories[c.parent].ID
		}
		if err := db.Create(category).Error; err != nil {
			return nil, err
		}
		categories[c.name] = category
	}
	return categories, nil
}

func createOrganizations(db *gorm.DB) ([]*model.Organization, error) {
	data := []model.Organization{
		{
			Name:               "Kenya Roads Authority",
			OrganizationType:   model.OrgTypeParastatal,
			RegistrationNumber: "KRA-2010-001",
			Email:              "tenders@kra.go.ke",
			Phone:              "+254-20-8011000",
			Website:            "https://www.kra.go.ke",
		},
		{
			Name:               "Ministry of Health",
			OrganizationType:   model.OrgTypeGovernment,
			RegistrationNumber: "MOH-GOK-1963",
			Email:              "procurement@health.go.ke",
			Phone:              "+254-20-2717077",
			Website:            "https://www.health.go.ke",
		},
		{
			Name:               "Nairobi City County",
			OrganizationType:   model.OrgTypeMunicipality,
			RegistrationNumber: "NCC-2013-047",
			Email:              "tenders@nairobi.go.ke",
			Phone:              "+254-20-2177000",
			Website:            "https://www.nairobi.go.ke",
		},
		{
			Name:               "Kenya Power & Lighting Company",
			OrganizationType:   model.OrgTypeParastatal,
			RegistrationNumber: "KPLC-1922-001",
			Email:              "procurement@kplc.co.ke",
			Phone:              "+254-20-3201000",
			Website:            "https://www.kplc.co.ke",
		},
		{
			Name:               "University of Nairobi",
			OrganizationType:   model.OrgTypeEducation,
			RegistrationNumber: "UON-1956-001",
			Email:              "supplies@uonbi.ac.ke",
			Phone:              "+254-20-4913000",
			Website:            "https://www.uonbi.ac.ke",
		},
		{
			Name:               "Safaricom PLC",
			OrganizationType:   model.OrgTypePrivate,
			RegistrationNumber: "SAF-PLC-1997",
			Email:              "procurement@safaricom.co.ke",
			Phone:              "+254-722-000000",
			Website:            "https://www.safaricom.co.ke",
		},
		{
			Name:               "Kenya Defence Forces",
			OrganizationType:   model.OrgTypeMilitary,
			RegistrationNumber: "KDF-MOD-1963",
			Email:              "supplies@mod.go.ke",
			Phone:              "+254-20-2721660",
			Website:            "https://www.mod.go.ke",
		},
		{
			Name:               "Red Cross Kenya",
			OrganizationType:   model.OrgTypeNGO,
			RegistrationNumber: "KRCS-NGO-1965",
			Email:              "procurement@redcross.or.ke",
			Phone:              "+254-20-3950000",
			Website:            "https://www.redcross.or.ke",
		},
	}

	orgs := make([]*model.Organization, 0, len(data))
	for i := range data {
		org := &data[i]
		org.Address = org.Name + " Headquarters"
		org.City = "Nairobi"
		org.Country = "Kenya"
		org.IsVerified = true
		if err := db.Create(org).Error; err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}
	return orgs, nil
}

func createUsers(db *gorm.DB, orgs []*model.Organization) ([]*model.User, []*model.User, error) {
	password, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}

	admin := &model.User{
		Email:     "admin@tenders.co.ke",
		Password:  string(password),
		FirstName: "Admin",
		LastName:  "User",
		Role:      model.RoleAdmin,
	}
	if err := db.Create(admin).Error; err != nil {
		return nil, nil, err
	}

	managers := []struct {
		email string
		first string
		last  string
	}{
		{"john.doe@kra.go.ke", "John", "Doe"},
		{"emma.wilson@health.go.ke", "Emma", "Wilson"},
		{"michael.chen@nairobi.go.ke", "Michael", "Chen"},
		{"sarah.johnson@kplc.co.ke", "Sarah", "Johnson"},
	}
	orgUsers := make([]*model.User, 0, len(managers))
	for i, m := range managers {
		user := &model.User{
			Email:          m.email,
			Password:       string(password),
			FirstName:      m.first,
			LastName:       m.last,
			Role:           model.RoleOrganization,
			OrganizationID: &orgs[i].ID,
		}
		if err := db.Create(user).Error; err != nil {
			return nil, nil, err
		}
		orgUsers = append(orgUsers, user)
	}

	bidders := []struct {
		email string
		first string
		last  string
	}{
		{"james.smith@premierbuilders.co.ke", "James", "Smith"},
		{"linda.brown@techsolutions.co.ke", "Linda", "Brown"},
		{"robert.davis@easupplies.co.ke", "Robert", "Davis"},
		{"maria.garcia@moderneng.co.ke", "Maria", "Garcia"},
		{"david.martinez@swiftcontractors.net", "David", "Martinez"},
	}
	vendorUsers := make([]*model.User, 0, len(bidders))
	for _, b := range bidders {
		user := &model.User{
			Email:     b.email,
			Password:  string(password),
			FirstName: b.first,
			LastName:  b.last,
			Role:      model.RoleVendor,
		}
		if err := db.Create(user).Error; err != nil {
			return nil, nil, err
		}
		vendorUsers = append(vendorUsers, user)
	}
	return orgUsers, vendorUsers, nil
}

func createVendors(db *gorm.DB, users []*model.User, categories map[string]*model.TenderCategory) ([]*model.Vendor, error) {
	data := []struct {
		company    string
		business   model.BusinessType
		regNum     string
		taxID      string
		email      string
		phone      string
		city       string
		year       int
		employees  int
		turnover   float64
		rating     float64
		reviews    int
		verified   bool
		categories []string
	}{
		{
			company: "Premier Builders Ltd", business: model.BusinessLLC,
			regNum: "PB-2015-0123", taxID: "TAX-PB-2015",
			email: "info@premierbuilders.co.ke", phone: "+254-722-111111",
			city: "Nairobi", year: 2015, employees: 150, turnover: 50000000,
			rating: 4.6, reviews: 23, verified: true,
			categories: []string{"Construction & Infrastructure", "Buildings", "Bridges & Tunnels"},
		},
		{
			company: "TechSolutions Africa", business: model.BusinessLLC,
			regNum: "TSA-2018-0456", taxID: "TAX-TSA-2018",
			email: "contact@techsolutions.co.ke", phone: "+254-733-222222",
			city: "Nairobi", year: 2018, employees: 45, turnover: 15000000,
			rating: 4.2, reviews: 11, verified: true,
			categories: []string{"IT & Technology", "Software Development", "Hardware & Equipment"},
		},
		{
			company: "East Africa Supplies Co", business: model.BusinessCorporation,
			regNum: "EAS-2010-0789", taxID: "TAX-EAS-2010",
			email: "sales@easupplies.co.ke", phone: "+254-744-333333",
			city: "Mombasa", year: 2010, employees: 80, turnover: 30000000,
			rating: 3.9, reviews: 31, verified: true,
			categories: []string{"Office Supplies", "Medical Equipment", "Consulting Services"},
		},
		{
			company: "Modern Engineering Ltd", business: model.BusinessLLC,
			regNum: "MEL-2012-1011", taxID: "TAX-MEL-2012",
			email: "info@moderneng.co.ke", phone: "+254-755-444444",
			city: "Kisumu", year: 2012, employees: 120, turnover: 40000000,
			rating: 4.4, reviews: 18, verified: true,
			categories: []string{"Electrical Works", "Plumbing & HVAC", "Roads & Highways"},
		},
		{
			company: "Swift Contractors Inc", business: model.BusinessCorporation,
			regNum: "SCI-2016-1213", taxID: "TAX-SCI-2016",
			email: "contracts@swiftcontractors.net", phone: "+254-766-555555",
			city: "Nakuru", year: 2016, employees: 95, turnover: 35000000,
			rating: 0, reviews: 0, verified: true,
			categories: []string{"Construction & Infrastructure", "Cleaning & Maintenance", "Security Services"},
		},
	}

	vendors := make([]*model.Vendor, 0, len(data))
	for i, d := range data {
		vendor := &model.Vendor{
			UserID:             &users[i].ID,
			CompanyName:        d.company,
			BusinessType:       d.business,
			RegistrationNumber: d.regNum,
			TaxID:              d.taxID,
			Email:              d.email,
			Phone:              d.phone,
			Address:            d.company + " Business Park",
			City:               d.city,
			Country:            "Kenya",
			PostalCode:         fmt.Sprintf("00%d00", 100+i),
			YearEstablished:    d.year,
			NumberOfEmployees:  d.employees,
			AnnualTurnover:     d.turnover,
			ServiceAreas:       "Kenya, Uganda, Tanzania",
			IsVerified:         d.verified,
			Rating:             d.rating,
			TotalReviews:       d.reviews,
		}
		for _, name := range d.categories {
			vendor.Categories = append(vendor.Categories, *categories[name])
		}
		if err := db.Create(vendor).Error; err != nil {
			return nil, err
		}
		if err := db.Model(users[i]).Update("vendor_id", vendor.ID).Error; err != nil {
			return nil, err
		}
		vendors = append(vendors, vendor)
	}
	return vendors, nil
}

func createTenders(db *gorm.DB, orgs []*model.Organization, categories map[string]*model.TenderCategory, orgUsers []*model.User) ([]*model.Tender, error) {
	now := time.Now()
	data := []struct {
		number   string
		title    string
		orgIdx   int
		category string
		desc     string
		reqs     string
		value    float64
		method   model.ProcurementMethod
		duration int
		location string
		city     string
		minExp   int
		status   model.TenderStatus
		pubDays  int
		deadline int
		featured bool
	}{
		{
			number: "KRA/RD/2025/001", title: "Construction of 50km Nairobi-Nakuru Highway Section",
			orgIdx: 0, category: "Roads & Highways",
			desc:  "Design and construction of dual carriageway highway section including drainage, signage, and safety features",
			reqs:  "Contractor must have completed at least 3 highway projects of minimum 30km. ISO 9001 certified.",
			value: 2500000000, method: model.MethodOpen, duration: 720,
			location: "Nairobi-Nakuru Highway", city: "Kiambu", minExp: 10,
			status: model.TenderStatusPublished, pubDays: -12, deadline: 30, featured: true,
		},
		{
			number: "MOH/MED/2025/012", title: "Supply and Installation of MRI Machines (5 Units)",
			orgIdx: 1, category: "Medical Equipment",
			desc:  "Supply, installation, and commissioning of 5 MRI machines for county hospitals",
			reqs:  "Must be authorized dealer. Provide 5-year warranty and training.",
			value: 750000000, method: model.MethodRestricted, duration: 180,
			location: "Multiple County Hospitals", city: "Nairobi", minExp: 5,
			status: model.TenderStatusPublished, pubDays: -8, deadline: 21, featured: true,
		},
		{
			number: "NCC/IT/2025/003", title: "County Integrated Revenue Management System",
			orgIdx: 2, category: "Software Development",
			desc:  "Development of cloud-based revenue collection and management system with mobile integration",
			reqs:  "Experience in government systems. Team of minimum 8 developers required.",
			value: 150000000, method: model.MethodCompetitiveDialogue, duration: 365,
			location: "City Hall, Nairobi", city: "Nairobi", minExp: 7,
			status: model.TenderStatusPublished, pubDays: -40, deadline: 10, featured: false,
		},
		{
			number: "KPLC/EL/2025/018", title: "Installation of 10,000 Smart Meters",
			orgIdx: 3, category: "Electrical Works",
			desc:  "Supply and installation of prepaid smart electricity meters across Nairobi region",
			reqs:  "EPRA certified electrical contractor. Previous smart meter installation experience mandatory.",
			value: 180000000, method: model.MethodOpen, duration: 240,
			location: "Greater Nairobi Area", city: "Nairobi", minExp: 5,
			status: model.TenderStatusPublished, pubDays: -10, deadline: 14, featured: false,
		},
		{
			number: "UON/BUILD/2025/005", title: "Construction of Student Hostel (500 Capacity)",
			orgIdx: 4, category: "Buildings",
			desc:  "Design and construction of modern student accommodation facility with amenities",
			reqs:  "Experience in institutional buildings. NCA 1 registration required.",
			value: 450000000, method: model.MethodOpen, duration: 540,
			location: "University of Nairobi, Main Campus", city: "Nairobi", minExp: 8,
			status: model.TenderStatusPublished, pubDays: -5, deadline: 45, featured: true,
		},
		{
			number: "SAF/IT/2025/009", title: "Network Infrastructure Upgrade",
			orgIdx: 5, category: "Hardware & Equipment",
			desc:  "Supply and installation of core network equipment for 50 base stations",
			reqs:  "Cisco or Huawei certified partner. Provide equipment specs and compliance certificates.",
			value: 320000000, method: model.MethodRestricted, duration: 180,
			location: "Multiple Sites Nationwide", city: "Nairobi", minExp: 6,
			status: model.TenderStatusPublished, pubDays: -35, deadline: 7, featured: false,
		},
		{
			number: "KDF/SEC/2025/022", title: "Supply of Security Surveillance Systems",
			orgIdx: 6, category: "Security Services",
			desc:  "High-tech surveillance systems for military installations including AI-powered analytics",
			reqs:  "Must be registered defense contractor with appropriate clearances.",
			value: 280000000, method: model.MethodNegotiated, duration: 270,
			location: "Multiple Military Bases", city: "Nairobi", minExp: 10,
			status: model.TenderStatusClosed, pubDays: -60, deadline: -10, featured: false,
		},
		{
			number: "KRCS/CONSULT/2025/004", title: "Disaster Preparedness Strategy Development",
			orgIdx: 7, category: "Consulting Services",
			desc:  "Comprehensive disaster response and preparedness strategy for East Africa region",
			reqs:  "International disaster management certification. Previous NGO consulting experience.",
			value: 25000000, method: model.MethodFramework, duration: 120,
			location: "Red Cross Headquarters", city: "Nairobi", minExp: 8,
			status: model.TenderStatusPublished, pubDays: -6, deadline: 25, featured: false,
		},
		{
			number: "KRA/BRIDGE/2025/007", title: "Construction of Nyali Bridge Expansion",
			orgIdx: 0, category: "Bridges & Tunnels",
			desc:  "Expansion of existing bridge with additional lanes and pedestrian walkway",
			reqs:  "Bridge construction specialist. Marine construction experience required.",
			value: 1200000000, method: model.MethodOpen, duration: 480,
			location: "Nyali, Mombasa", city: "Mombasa", minExp: 12,
			status: model.TenderStatusAwarded, pubDays: -400, deadline: -340, featured: false,
		},
		{
			number: "NCC/CLEAN/2025/011", title: "City Cleaning and Waste Management Services",
			orgIdx: 2, category: "Cleaning & Maintenance",
			desc:  "24-month contract for city cleaning, waste collection, and disposal services",
			reqs:  "Fleet of minimum 20 trucks. NEMA compliance certificate.",
			value: 380000000, method: model.MethodOpen, duration: 730,
			location: "Nairobi Central Business District", city: "Nairobi", minExp: 5,
			status: model.TenderStatusAwarded, pubDays: -170, deadline: -130, featured: false,
		},
		{
			number: "MOH/ICT/2025/030", title: "Hospital Management Information System",
			orgIdx: 1, category: "Software Development",
			desc:  "Electronic medical records and hospital administration platform for referral hospitals",
			reqs:  "HL7/FHIR interoperability experience. Data protection compliance.",
			value: 95000000, method: model.MethodOpen, duration: 300,
			location: "Kenyatta National Hospital", city: "Nairobi", minExp: 5,
			status: model.TenderStatusDraft, pubDays: 0, deadline: 60, featured: false,
		},
	}

	tenders := make([]*model.Tender, 0, len(data))
	for i, d := range data {
		org := orgs[d.orgIdx]
		security := d.value * 0.02
		turnover := d.value * 0.3
		creator := orgUsers[d.orgIdx%len(orgUsers)]

		tender := &model.Tender{
			TenderNumber:           d.number,
			Title:                  d.title,
			OrganizationID:         org.ID,
			CategoryID:             &categories[d.category].ID,
			Description:            d.desc,
			DetailedRequirements:   d.reqs,
			Status:                 d.status,
			ProcurementMethod:      d.method,
			EstimatedValue:         d.value,
			Currency:               "KES",
			BidSecurityAmount:      &security,
			ContractDurationDays:   d.duration,
			ProjectLocation:        d.location,
			ProjectCity:            d.city,
			ProjectCountry:         "Kenya",
			EligibleCountries:      "KE,UG,TZ,RW,BI",
			MinimumExperienceYears: d.minExp,
			MinimumTurnover:        &turnover,
			RequiresPrequalify:     d.value > 1000000000,
			ContactPerson:          org.Name + " Procurement Officer",
			ContactEmail:           org.Email,
			ContactPhone:           org.Phone,
			ViewsCount:             40*i + 57,
			IsFeatured:             d.featured,
			CreatedByID:            &creator.ID,
		}
		if d.status != model.TenderStatusDraft {
			pub := now.AddDate(0, 0, d.pubDays)
			deadline := now.AddDate(0, 0, d.deadline)
			opening := deadline.AddDate(0, 0, 2)
			tender.PublicationDate = &pub
			tender.SubmissionDeadline = &deadline
			tender.OpeningDate = &opening
		}
		if err := db.Create(tender).Error; err != nil {
			return nil, err
		}
		tenders = append(tenders, tender)
	}
	return tenders, nil
}

func createTenderDocuments(db *gorm.DB, tenders []*model.Tender) error {
	docTypes := []struct {
		docType model.TenderDocumentType
		title   string
	}{
		{model.TenderDocNotice, "Tender Notice Document"},
		{model.TenderDocTechnicalSpecs, "Technical Specifications"},
		{model.TenderDocBillQuantities, "Bill of Quantities"},
		{model.TenderDocTermsConditions, "Terms and Conditions"},
	}
	for _, tender := range tenders {
		if tender.Status == model.TenderStatusDraft {
			continue
		}
		for _, dt := range docTypes {
			doc := model.TenderDocument{
				TenderID:     tender.ID,
				DocumentType: dt.docType,
				Title:        fmt.Sprintf("%s - %s", dt.title, tender.TenderNumber),
				File:         fmt.Sprintf("tender_documents/%s_%s.pdf", tender.TenderNumber, dt.docType),
				FileSize:     int64(740*1024 + len(tender.Title)*1024),
				Description:  fmt.Sprintf("%s for %s", dt.title, tender.Title),
				IsMandatory:  true,
			}
			if err := db.Create(&doc).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func createAmendments(db *gorm.DB, tenders []*model.Tender) error {
	// Extend the deadline of two open tenders by 14 days.
	for _, idx := range []int{0, 4} {
		tender := tenders[idx]
		newDeadline := tender.SubmissionDeadline.AddDate(0, 0, 14)
		amendment := model.TenderAmendment{
			TenderID:        tender.ID,
			AmendmentNumber: 1,
			Title:           "Extension of Submission Deadline",
			Description:     "The submission deadline has been extended by 14 days due to requests from prospective bidders.",
			AffectsDeadline: true,
			NewDeadline:     &newDeadline,
		}
		if err := db.Create(&amendment).Error; err != nil {
			return err
		}
		if err := db.Model(tender).Update("submission_deadline", newDeadline).Error; err != nil {
			return err
		}
		tender.SubmissionDeadline = &newDeadline
	}
	return nil
}

func createBids(db *gorm.DB, tenders []*model.Tender, vendors []*model.Vendor) ([]*model.Bid, error) {
	assignments := []struct {
		tenderIdx  int
		vendorIdxs []int
		factors    []float64
		status     model.BidStatus
	}{
		{0, []int{0, 3, 4}, []float64{0.96, 1.04, 0.91}, model.BidStatusSubmitted},
		{1, []int{2, 1}, []float64{0.98, 1.07}, model.BidStatusSubmitted},
		{2, []int{1}, []float64{0.94}, model.BidStatusSubmitted},
		{3, []int{3, 4}, []float64{1.02, 0.95}, model.BidStatusSubmitted},
		{4, []int{0, 4}, []float64{0.99, 1.05}, model.BidStatusSubmitted},
		{5, []int{1, 2}, []float64{0.93, 1.01}, model.BidStatusSubmitted},
		{6, []int{0, 1, 4}, []float64{0.97, 1.03, 0.9}, model.BidStatusUnderEvaluation},
		{7, []int{2}, []float64{0.96}, model.BidStatusSubmitted},
		{8, []int{0, 3, 4}, []float64{0.95, 1.06, 1.01}, model.BidStatusRejected},
		{9, []int{4, 0, 2}, []float64{0.92, 1.04, 1.09}, model.BidStatusRejected},
	}

	var bids []*model.Bid
	for _, a := range assignments {
		tender := tenders[a.tenderIdx]
		for seq, vi := range a.vendorIdxs {
			vendor := vendors[vi]
			amount := tender.EstimatedValue * a.factors[seq]
			security := tender.EstimatedValue * 0.02
			status := a.status
			// The first listed bidder of an awarded tender is the winner.
			if tender.Status == model.TenderStatusAwarded && seq == 0 {
				status = model.BidStatusAwarded
			}

			submitted := tender.PublicationDate.AddDate(0, 0, 3+seq)
			bid := &model.Bid{
				BidNumber:            fmt.Sprintf("BID-%s-%03d", tender.TenderNumber, seq+1),
				TenderID:             tender.ID,
				VendorID:             vendor.ID,
				Amount:               amount,
				Currency:             tender.Currency,
				TechnicalProposal:    fmt.Sprintf("Technical proposal for %s by %s.", tender.Title, vendor.CompanyName),
				FinancialProposal:    "Financial breakdown: Materials 40%, Labor 30%, Equipment 20%, Overhead 10%",
				DeliveryTimelineDays: tender.ContractDurationDays - 10*seq,
				BidSecurityReference: fmt.Sprintf("BS-%s-%s", tender.TenderNumber, vendor.RegistrationNumber),
				BidSecurityAmount:    &security,
				Status:               status,
				SubmittedAt:          submitted,
			}
			if status != model.BidStatusSubmitted {
				technical := 72.0 + float64(vi)*5
				financial := 68.0 + float64(seq)*6
				total := (technical + financial) / 2
				reviewed := submitted.AddDate(0, 0, 20)
				bid.TechnicalScore = &technical
				bid.FinancialScore = &financial
				bid.TotalScore = &total
				bid.ReviewedAt = &reviewed
			}
			if err := db.Create(bid).Error; err != nil {
				return nil, err
			}
			bids = append(bids, bid)
		}
	}
	return bids, nil
}

func createBidDocuments(db *gorm.DB, bids []*model.Bid, vendors []*model.Vendor) error {
	vendorByID := make(map[uuid.UUID]*model.Vendor, len(vendors))
	for _, v := range vendors {
		vendorByID[v.ID] = v
	}
	docTypes := []struct {
		docType model.BidDocumentType
		title   string
	}{
		{model.BidDocTechnicalProposal, "Technical Proposal"},
		{model.BidDocFinancialProposal, "Financial Proposal"},
		{model.BidDocCompanyProfile, "Company Profile"},
		{model.BidDocTaxClearance, "Tax Clearance Certificate"},
	}
	for _, bid := range bids {
		vendor := vendorByID[bid.VendorID]
		for _, dt := range docTypes {
			doc := model.BidDocument{
				BidID:        bid.ID,
				DocumentType: dt.docType,
				Title:        fmt.Sprintf("%s - %s", dt.title, vendor.CompanyName),
				File:         fmt.Sprintf("bid_documents/%s_%s.pdf", bid.BidNumber, dt.docType),
				Description:  fmt.Sprintf("%s submitted by %s", dt.title, vendor.CompanyName),
			}
			if err := db.Create(&doc).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func createClarifications(db *gorm.DB, tenders []*model.Tender, vendors []*model.Vendor) error {
	entries := []struct {
		tenderIdx int
		vendorIdx int
		question  string
		answer    string
		public    bool
	}{
		{
			0, 3,
			"What are the specific technical requirements for the drainage works?",
			"Please refer to Section 3.2 of the technical specifications document.",
			true,
		},
		{
			0, 4,
			"Can foreign companies participate in consortium with local firms?",
			"Yes, joint ventures between foreign and local firms are acceptable as per tender conditions.",
			true,
		},
		{
			0, 0,
			"Is there a site visit scheduled before bid submission?",
			"",
			true,
		},
		{
			4, 0,
			"Can you provide more details about the evaluation criteria?",
			"Evaluation will be 70% technical and 30% financial as stated in the tender notice.",
			true,
		},
		{
			4, 4,
			"What are the insurance requirements for this project?",
			"",
			false,
		},
	}
	for _, e := range entries {
		tender := tenders[e.tenderIdx]
		asked := tender.PublicationDate.AddDate(0, 0, 2)
		clarification := model.Clarification{
			TenderID:   tender.ID,
			VendorID:   vendors[e.vendorIdx].ID,
			Question:   e.question,
			IsPublic:   e.public,
			AskedAt:    asked,
			IsAnswered: e.answer != "",
		}
		if e.answer != "" {
			answered := asked.AddDate(0, 0, 2)
			clarification.Answer = e.answer
			clarification.AnsweredAt = &answered
		}
		if err := db.Create(&clarification).Error; err != nil {
			return err
		}
	}
	return nil
}

func createEvaluations(db *gorm.DB, tenders []*model.Tender, bids []*model.Bid, orgUsers []*model.User) error {
	technicalCriteria := `{"experience":{"weight":20},"methodology":{"weight":25},"team":{"weight":15},"equipment":{"weight":10}}`
	financialCriteria := `{"price":{"weight":30}}`

	for _, idx := range []int{6, 8, 9} {
		tender := tenders[idx]
		evaluation := model.Evaluation{
			TenderID:          tender.ID,
			EvaluatorID:       orgUsers[idx%len(orgUsers)].ID,
			TechnicalCriteria: technicalCriteria,
			FinancialCriteria: financialCriteria,
			Notes:             "Evaluation conducted as per procurement guidelines",
			IsCompleted:       tender.Status == model.TenderStatusAwarded,
		}
		if err := db.Create(&evaluation).Error; err != nil {
			return err
		}

		for _, bid := range bids {
			if bid.TenderID != tender.ID || bid.TechnicalScore == nil {
				continue
			}
			recommendation := model.RecommendationConditional
			if *bid.TotalScore >= 80 {
				recommendation = model.RecommendationRecommend
			} else if *bid.TotalScore < 70 {
				recommendation = model.RecommendationNotRecommend
			}
			score := model.BidEvaluation{
				EvaluationID:    evaluation.ID,
				BidID:           bid.ID,
				TechnicalScores: `{"experience":17,"methodology":21,"team":12,"equipment":8}`,
				TechnicalScore:  *bid.TechnicalScore,
				FinancialScore:  *bid.FinancialScore,
				TotalScore:      *bid.TotalScore,
				Remarks:         fmt.Sprintf("Bid evaluated against the published criteria. Total score %.1f/100.", *bid.TotalScore),
				Recommendation:  recommendation,
			}
			if err := db.Create(&score).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func createContracts(db *gorm.DB, tenders []*model.Tender, bids []*model.Bid) ([]*model.Contract, error) {
	var contracts []*model.Contract
	contractNum := 1
	for _, tender := range tenders {
		if tender.Status != model.TenderStatusAwarded {
			continue
		}
		var winner *model.Bid
		for _, bid := range bids {
			if bid.TenderID == tender.ID && bid.Status == model.BidStatusAwarded {
				winner = bid
				break
			}
		}
		if winner == nil {
			continue
		}

		start := tender.OpeningDate.AddDate(0, 0, 30)
		end := start.AddDate(0, 0, tender.ContractDurationDays)
		status := model.ContractStatusActive
		// The oldest award has run to completion.
		if contractNum == 1 {
			status = model.ContractStatusCompleted
			end = time.Now().AddDate(0, 0, -30)
		}
		bond := winner.Amount * 0.10

		contract := &model.Contract{
			ContractNumber:        fmt.Sprintf("CNT-2025-%04d", contractNum),
			TenderID:              tender.ID,
			WinningBidID:          winner.ID,
			VendorID:              winner.VendorID,
			ContractValue:         winner.Amount,
			Currency:              winner.Currency,
			StartDate:             start,
			EndDate:               end,
			DurationDays:          tender.ContractDurationDays,
			Status:                status,
			TermsAndConditions:    "Standard government contract terms apply. Performance bond required. Monthly progress reports mandatory.",
			PerformanceBondAmount: &bond,
			RetentionPercentage:   10,
			SignedByOrganization:  true,
			SignedByVendor:        true,
		}
		if err := db.Create(contract).Error; err != nil {
			return nil, err
		}
		contracts = append(contracts, contract)
		contractNum++
	}
	return contracts, nil
}

var milestonePhases = []struct {
	title        string
	deliverables string
}{
	{"Project Mobilization and Site Preparation", "Site mobilization, temporary facilities, material procurement, approved drawings"},
	{"Foundation and Structural Work", "Completed foundation work, structural framework, inspection certificates"},
	{"Main Construction Phase", "Main construction completed, MEP rough-in, progress photos"},
	{"Finishing and Installation", "Finishing work, equipment installation, training materials"},
	{"Testing and Commissioning", "System testing reports, commissioning certificates, user training"},
	{"Final Handover and Documentation", "As-built drawings, operation manuals, warranty documents, final inspection"},
}

func createMilestones(db *gorm.DB, contracts []*model.Contract) error {
	for _, contract := range contracts {
		count := 4
		if contract.Status == model.ContractStatusCompleted {
			count = 3
		}
		amount := contract.ContractValue / float64(count)
		percentage := 100.0 / float64(count)
		span := int(contract.EndDate.Sub(contract.StartDate).Hours() / 24)

		for i := 1; i <= count; i++ {
			due := contract.StartDate.AddDate(0, 0, span/count*i)
			phase := milestonePhases[i-1]
			milestone := model.Milestone{
				ContractID:        contract.ID,
				Title:             fmt.Sprintf("Milestone %d - %s", i, phase.title),
				Description:       fmt.Sprintf("Deliverables for milestone %d of %d", i, count),
				SequenceNumber:    i,
				Deliverables:      phase.deliverables,
				Amount:            amount,
				PercentageOfTotal: percentage,
				DueDate:           due,
				Status:            model.MilestoneStatusPending,
			}

			if contract.Status == model.ContractStatusCompleted {
				completed := due.AddDate(0, 0, -2)
				paid := completed.AddDate(0, 0, 10)
				milestone.Status = model.MilestoneStatusPaid
				milestone.CompletionDate = &completed
				milestone.PaymentDate = &paid
				milestone.VerificationDocument = fmt.Sprintf("milestones/%s_m%d_verification.pdf", contract.ContractNumber, i)
				milestone.PaymentReceipt = fmt.Sprintf("payments/%s_m%d_receipt.pdf", contract.ContractNumber, i)
			} else {
				// Active contract: first milestone paid, second underway.
				switch i {
				case 1:
					completed := time.Now().AddDate(0, 0, -20)
					paid := time.Now().AddDate(0, 0, -8)
					milestone.Status = model.MilestoneStatusPaid
					milestone.CompletionDate = &completed
					milestone.PaymentDate = &paid
					milestone.VerificationDocument = fmt.Sprintf("milestones/%s_m1_verification.pdf", contract.ContractNumber)
					milestone.PaymentReceipt = fmt.Sprintf("payments/%s_m1_receipt.pdf", contract.ContractNumber)
				case 2:
					milestone.Status = model.MilestoneStatusInProgress
				}
			}
			if err := db.Create(&milestone).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func createReviews(db *gorm.DB, contracts []*model.Contract, orgUsers []*model.User, vendors []*model.Vendor) error {
	for _, contract := range contracts {
		if contract.Status != model.ContractStatusCompleted {
			continue
		}
		review := model.Review{
			ContractID:            contract.ID,
			ReviewerID:            orgUsers[0].ID,
			QualityRating:         5,
			TimelinessRating:      4,
			ProfessionalismRating: 5,
			OverallRating:         14.0 / 3,
			Comment:               "Very good performance. Minor delays but overall satisfactory delivery. Good communication throughout the project.",
			WouldWorkAgain:        true,
		}
		if err := db.Create(&review).Error; err != nil {
			return err
		}

		for _, vendor := range vendors {
			if vendor.ID == contract.VendorID {
				updates := map[string]interface{}{
					"rating":        review.OverallRating,
					"total_reviews": vendor.TotalReviews + 1,
				}
				if err := db.Model(vendor).Updates(updates).Error; err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func createNotifications(db *gorm.DB, vendorUsers []*model.User, tenders []*model.Tender) error {
	read := time.Now().AddDate(0, 0, -3)
	entries := []struct {
		userIdx   int
		tenderIdx int
		notifType model.NotificationType
		title     string
		message   string
		read      bool
	}{
		{0, 0, model.NotifyTenderPublished, "New tender published", "A new tender matching your categories has been published.", true},
		{1, 2, model.NotifyTenderPublished, "New tender published", "A new tender matching your categories has been published.", false},
		{1, 5, model.NotifyTenderClosing, "Tender closing soon", "Submission deadline is approaching for a tender you bid on.", false},
		{3, 3, model.NotifyTenderPublished, "New tender published", "A new tender matching your categories has been published.", true},
		{4, 9, model.NotifyBidStatusChange, "Bid status updated", "Your bid has been awarded.", false},
	}
	for _, e := range entries {
		tender := tenders[e.tenderIdx]
		notification := model.Notification{
			RecipientID: vendorUsers[e.userIdx].ID,
			Type:        e.notifType,
			ReferenceID: tender.ID,
			Title:       e.title,
			Message:     e.message,
			Link:        "/api/tenders/" + tender.Slug,
			IsRead:      e.read,
		}
		if e.read {
			notification.ReadAt = &read
		}
		if err := db.Create(&notification).Error; err != nil {
			return err
		}
	}
	return nil
}
