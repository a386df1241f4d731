package tenant

// column is one column of the canonical work_orders shape. Every project
// schema converges to this definition; the migrator adds what is missing and
// converts what an older shape stored differently.
type column struct {
	Name string
	Type string
}

// foreignKey describes one canonical constraint into a shared reference
// table. All canonical constraints use ON DELETE RESTRICT ON UPDATE CASCADE
// so a referenced code cannot be deleted while in use, but a rename of the
// code propagates into every tenant table.
type foreignKey struct {
	Name      string
	Column    string
	RefTable  string
	RefColumn string
}

var canonicalColumns = []column{
	{"customer_wo_id", "VARCHAR(100)"},
	{"customer_id", "VARCHAR(100)"},
	{"customer_name", "VARCHAR(255)"},
	{"address", "VARCHAR(255)"},
	{"city", "VARCHAR(100)"},
	{"state", "VARCHAR(50)"},
	{"zip", "VARCHAR(20)"},
	{"phone", "VARCHAR(50)"},
	{"email", "VARCHAR(255)"},
	{"route", "VARCHAR(100)"},
	{"zone", "VARCHAR(100)"},
	{"status", "VARCHAR(50)"},
	{"service_type", "VARCHAR(50)"},
	{"old_meter_id", "VARCHAR(100)"},
	{"new_meter_id", "VARCHAR(100)"},
	{"old_reading", "VARCHAR(50)"},
	{"new_reading", "VARCHAR(50)"},
	{"old_gps", "VARCHAR(100)"},
	{"new_gps", "VARCHAR(100)"},
	{"old_meter_type", "VARCHAR(100)"},
	{"new_meter_type", "VARCHAR(100)"},
	{"trouble", "VARCHAR(50)"},
	{"assigned_user_id", "INTEGER"},
	{"assigned_group_id", "VARCHAR(100)"},
	{"scheduled_at", "TIMESTAMPTZ"},
	{"completed_at", "TIMESTAMPTZ"},
	{"scheduled_by", "INTEGER"},
	{"completed_by", "INTEGER"},
	{"created_by", "INTEGER"},
	{"updated_by", "INTEGER"},
	{"notes", "TEXT"},
	{"attachments", "TEXT[]"},
	{"signature", "TEXT"},
	{"signature_name", "VARCHAR(200)"},
	{"created_at", "TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP"},
	{"updated_at", "TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP"},
}

var canonicalForeignKeys = []foreignKey{
	{"fk_work_orders_status", "status", "statuses", "status_code"},
	{"fk_work_orders_service_type", "service_type", "service_types", "service_code"},
	{"fk_work_orders_trouble", "trouble", "trouble_codes", "trouble_code"},
	{"fk_work_orders_old_meter_type", "old_meter_type", "meter_types", "product_id"},
	{"fk_work_orders_new_meter_type", "new_meter_type", "meter_types", "product_id"},
	{"fk_work_orders_assigned_user", "assigned_user_id", "users", "user_id"},
	{"fk_work_orders_assigned_group", "assigned_group_id", "user_groups", "group_name"},
}

// legacyRenames maps superseded column names to their canonical name. A
// rename only happens when the canonical name does not exist yet.
var legacyRenames = map[string]string{
	"scheduled_date": "scheduled_at",
	"completed_date": "completed_at",
	"wo_number":      "customer_wo_id",
}

// deprecatedColumns are dropped once no longer part of the canonical shape.
var deprecatedColumns = []string{
	"meter_size",
	"book_number",
}
