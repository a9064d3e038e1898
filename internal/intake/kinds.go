package intake

// Collection names.
const (
	DemoRequests       = "demo_requests"
	SandboxRequests    = "sandbox_requests"
	PartnerInquiries   = "partner_inquiries"
	DriverInterest     = "driver_interest"
	DriverApplications = "driver_applications"
	DriverDemoRequests = "driver_demo_requests"
	DriverProfiles     = "driver_profiles"
)

// VehicleTypes are the vans a driver may apply with.
var VehicleTypes = []string{"SWB", "LWB", "Luton", "Other"}

// DBSCheckStatuses track the background check on a driver application.
var DBSCheckStatuses = []string{"not_started", "pending", "clear", "flagged"}

const (
	businessListLimit = 100
	driverListLimit   = 50
)

// col builds a field whose payload keys are the aliases followed by the column name.
func col(column string, t FieldType, aliases ...string) Field {
	keys := append(append([]string{}, aliases...), column)
	return Field{Column: column, Keys: keys, Type: t}
}

func enumCol(column string, values []string, aliases ...string) Field {
	f := col(column, Text, aliases...)
	f.Enum = values
	return f
}

func statusField(statuses []string) Field {
	return enumCol("status", statuses)
}

var utmFields = []Field{
	col("utm_source", Text, "utmSource"),
	col("utm_medium", Text, "utmMedium"),
	col("utm_campaign", Text, "utmCampaign"),
}

var crmStamp = Stamp{Trigger: "crm_id", Column: "crm_synced_at"}

func withUTM(fields ...Field) []Field {
	return append(fields, utmFields...)
}

// Catalogue returns every submission kind served under /contact.
func Catalogue() []*Kind {
	driverDemo := driverDemoKind()
	return []*Kind{
		demoKind(driverDemo),
		sandboxKind(),
		partnerKind(),
		driverInterestKind(),
		driverApplicationKind(),
		driverDemo,
		driverProfileKind(),
	}
}

// Lookup finds a kind by its path name.
func Lookup(kinds []*Kind, name string) (*Kind, bool) {
	for _, k := range kinds {
		if k.Name == name {
			return k, true
		}
	}
	return nil, false
}

func demoKind(driverDemo *Kind) *Kind {
	statuses := []string{"new", "contacted", "scheduled", "completed", "converted", "closed"}
	return &Kind{
		Name:       "demo",
		Collection: DemoRequests,
		Label:      "Demo request",
		Plural:     "demo requests",
		Fields: withUTM(
			col("name", Text),
			col("email", Text),
			col("company", Text),
			col("phone", Text),
			col("company_size", Text, "companySize"),
			col("interest", Text),
			col("preferred_date", Date, "preferredDate"),
			col("additional_info", Text, "additionalInfo"),
		),
		Required:      []string{"name", "email", "company"},
		Emails:        []string{"email"},
		InitialStatus: "new",
		Statuses:      statuses,
		Updates: []Field{
			statusField(statuses),
			col("crm_id", Text, "crmId"),
			col("contacted_at", Date, "contactedAt"),
			col("scheduled_date", Date, "scheduledDate"),
			col("demo_notes", Text, "demoNotes"),
			col("sales_rep", Text, "salesRep"),
		},
		Stamps: []Stamp{
			{Status: "contacted", Column: "contacted_at"},
			{Status: "completed", Column: "demo_completed_at"},
			crmStamp,
		},
		ListFilters:  map[string]string{"status": "status"},
		DefaultLimit: businessListLimit,
		Variants: []Variant{
			{Key: "demo_type", Kind: driverDemo},
			{Key: "demoType", Kind: driverDemo},
		},
	}
}

func sandboxKind() *Kind {
	statuses := []string{"new", "reviewing", "approved", "rejected", "provisioned", "active", "expired", "converted", "closed"}
	return &Kind{
		Name:       "sandbox",
		Collection: SandboxRequests,
		Label:      "Sandbox request",
		Plural:     "sandbox requests",
		Fields: withUTM(
			col("name", Text),
			col("email", Text),
			col("company", Text),
			col("phone", Text),
			col("job_title", Text, "jobTitle"),
			col("use_case", Text, "useCase"),
			col("expected_timeline", Text, "expectedTimeline"),
			col("number_of_users", Text, "numberOfUsers"),
			col("technical_contact_email", Text, "technicalContactEmail"),
			col("technical_contact_name", Text, "technicalContactName"),
		),
		Required:      []string{"name", "email", "company", "useCase"},
		Emails:        []string{"email"},
		InitialStatus: "new",
		Statuses:      statuses,
		Updates: []Field{
			statusField(statuses),
			col("crm_id", Text, "crmId"),
			col("approved_by", Text, "approvedBy"),
			col("sandbox_url", Text, "sandboxUrl"),
			col("expires_at", Date, "expiresAt"),
			col("internal_notes", Text, "internalNotes"),
		},
		Stamps: []Stamp{
			{Status: "approved", Column: "approved_at"},
			{Status: "provisioned", Column: "provisioned_at"},
			{Trigger: "approved_by", Column: "approved_at"},
			crmStamp,
		},
		ListFilters:  map[string]string{"status": "status"},
		DefaultLimit: businessListLimit,
	}
}

func partnerKind() *Kind {
	statuses := []string{"new", "reviewing", "qualified", "not_qualified", "negotiating", "agreement", "closed"}
	return &Kind{
		Name:       "partner",
		Collection: PartnerInquiries,
		Label:      "Partner inquiry",
		Plural:     "partner inquiries",
		Fields: withUTM(
			col("name", Text),
			col("email", Text),
			col("company", Text),
			col("phone", Text),
			col("job_title", Text, "jobTitle"),
			col("company_website", Text, "companyWebsite"),
			col("partnership_type", Text, "partnershipType"),
			col("message", Text),
			col("revenue_potential", Text, "revenuePotential"),
			col("geographic_focus", Text, "geographicFocus"),
			col("existing_customers", Text, "existingCustomers"),
		),
		Required:      []string{"name", "email", "company", "partnershipType", "message"},
		Emails:        []string{"email"},
		InitialStatus: "new",
		Statuses:      statuses,
		Updates: []Field{
			statusField(statuses),
			col("crm_id", Text, "crmId"),
			col("assigned_to", Text, "assignedTo"),
			col("qualification_notes", Text, "qualificationNotes"),
			col("partnership_tier", Text, "partnershipTier"),
			col("agreement_date", Date, "agreementDate"),
			col("agreement_value", Number, "agreementValue"),
		},
		Stamps: []Stamp{
			{Status: "qualified", Column: "qualified_at"},
			crmStamp,
		},
		ListFilters:  map[string]string{"status": "status", "type": "partnership_type"},
		DefaultLimit: businessListLimit,
	}
}

func driverInterestKind() *Kind {
	statuses := []string{"new", "contacted", "converted", "declined"}
	return &Kind{
		Name:       "driver-interest",
		Collection: DriverInterest,
		Label:      "Driver interest",
		Plural:     "driver interest registrations",
		Fields: []Field{
			col("email", Text),
			col("source", Text),
			col("client_submitted_at", Date, "timestamp"),
		},
		Required:      []string{"email"},
		Emails:        []string{"email"},
		InitialStatus: "new",
		Statuses:      statuses,
		Updates: []Field{
			statusField(statuses),
			col("notes", Text),
		},
		Stamps: []Stamp{
			{Status: "contacted", Column: "contacted_at"},
		},
		ListFilters:  map[string]string{"status": "status", "source": "source"},
		DefaultLimit: driverListLimit,
	}
}

func driverApplicationKind() *Kind {
	statuses := []string{"pending", "under_review", "approved", "rejected", "withdrawn"}
	return &Kind{
		Name:       "driver-application",
		Collection: DriverApplications,
		Label:      "Driver application",
		Plural:     "driver applications",
		Fields: []Field{
			col("email", Text),
			col("first_name", Text, "firstName"),
			col("last_name", Text, "lastName"),
			col("phone", Text),
			col("postcode", Text),
			col("address_line_1", Text, "addressLine1"),
			col("address_line_2", Text, "addressLine2"),
			col("city", Text),
			col("county", Text),

			enumCol("vehicle_type", VehicleTypes, "vehicleType"),
			col("vehicle_make", Text, "vehicleMake"),
			col("vehicle_model", Text, "vehicleModel"),
			col("vehicle_year", Integer, "vehicleYear"),
			col("vehicle_registration", Text, "vehicleRegistration"),
			col("vehicle_colour", Text, "vehicleColour"),
			col("vehicle_capacity", Text, "vehicleCapacity"),

			col("driving_licence_number", Text, "drivingLicenceNumber"),
			col("driving_licence_expiry", Date, "drivingLicenceExpiry"),
			col("mot_expiry_date", Date, "motExpiryDate"),
			col("insurance_provider", Text, "insuranceProvider"),
			col("insurance_policy_number", Text, "insurancePolicyNumber"),
			col("insurance_expiry", Date, "insuranceExpiry"),
			col("goods_in_transit_insurance", Boolean, "goodsInTransitInsurance"),

			col("availability_notes", Text, "availabilityNotes"),
			col("typical_routes", Text, "typicalRoutes"),
		},
		Required:      []string{"email", "first_name", "last_name", "phone", "postcode", "vehicle_type"},
		Emails:        []string{"email"},
		InitialStatus: "pending",
		Statuses:      statuses,
		Updates: []Field{
			statusField(statuses),
			col("reviewed_by", Text, "reviewedBy"),
			col("review_notes", Text, "reviewNotes"),
			col("licence_verified", Boolean, "licenceVerified"),
			col("mot_verified", Boolean, "motVerified"),
			col("insurance_verified", Boolean, "insuranceVerified"),
			enumCol("dbs_check_status", DBSCheckStatuses, "dbsCheckStatus"),
		},
		Stamps: []Stamp{
			{Status: "under_review", Column: "reviewed_at"},
			{Status: "approved", Column: "approved_at"},
			{Status: "rejected", Column: "rejected_at"},
		},
		ListFilters:  map[string]string{"status": "status", "vehicle_type": "vehicle_type"},
		DefaultLimit: driverListLimit,
	}
}

func driverDemoKind() *Kind {
	statuses := []string{"new", "contacted", "scheduled", "completed", "cancelled"}
	return &Kind{
		Name:       "driver-demo",
		Collection: DriverDemoRequests,
		Label:      "Driver demo request",
		Plural:     "driver demo requests",
		Fields: []Field{
			col("name", Text),
			col("email", Text),
			col("phone", Text),
			col("company_name", Text, "companyName"),
			col("message", Text),
			col("demo_type", Text, "demoType"),
			col("source", Text),
		},
		Required:      []string{"name", "email", "phone"},
		Emails:        []string{"email"},
		InitialStatus: "new",
		Statuses:      statuses,
		Updates: []Field{
			statusField(statuses),
			col("notes", Text),
		},
		Stamps: []Stamp{
			{Status: "contacted", Column: "contacted_at"},
			{Status: "completed", Column: "completed_at"},
		},
		ListFilters:  map[string]string{"status": "status"},
		DefaultLimit: driverListLimit,
	}
}

func driverProfileKind() *Kind {
	statuses := []string{"active", "paused", "suspended", "deactivated"}
	return &Kind{
		Name:       "driver-profile",
		Collection: DriverProfiles,
		Label:      "Driver profile",
		Plural:     "driver profiles",
		Fields: []Field{
			col("email", Text),
			col("first_name", Text, "firstName"),
			col("last_name", Text, "lastName"),
			col("phone", Text),
			col("application_id", Text, "applicationId"),
			col("device_platform", Text, "devicePlatform"),
			col("app_version", Text, "appVersion"),
			col("push_token", Text, "pushToken"),
			col("coverage_area", Text, "coverageArea"),
			col("max_radius_miles", Integer, "maxRadiusMiles"),
			col("payout_method", Text, "payoutMethod"),
			col("payout_account_name", Text, "payoutAccountName"),
			col("payout_sort_code", Text, "payoutSortCode"),
			col("payout_account_last4", Text, "payoutAccountLast4"),
		},
		Required:      []string{"email", "first_name", "last_name", "phone"},
		Emails:        []string{"email"},
		InitialStatus: "active",
		Statuses:      statuses,
		Updates: []Field{
			statusField(statuses),
			col("device_platform", Text, "devicePlatform"),
			col("app_version", Text, "appVersion"),
			col("push_token", Text, "pushToken"),
			col("coverage_area", Text, "coverageArea"),
			col("max_radius_miles", Integer, "maxRadiusMiles"),
			col("payout_method", Text, "payoutMethod"),
			col("payout_account_name", Text, "payoutAccountName"),
			col("payout_sort_code", Text, "payoutSortCode"),
			col("payout_account_last4", Text, "payoutAccountLast4"),
		},
		StrictUpdates: true,
		ListFilters:   map[string]string{"status": "status"},
		DefaultLimit:  driverListLimit,
		AdminCreate:   true,
	}
}
