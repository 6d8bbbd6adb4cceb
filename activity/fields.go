package activity

// CollectionName is the collection activities are stored in.
const CollectionName = "activities"

// Document paths of the stored activity.
const (
	FieldID           = "_id"
	FieldAction       = "action"
	FieldDescription  = "description"
	FieldLevel        = "level"
	FieldResource     = "resource.identifier"
	FieldResourceKind = "resource.kind"
	FieldUser         = "user._id"
	FieldTenant       = "tenant._id"
	FieldChannel      = "channel"
	FieldIsDeleted    = "is_deleted"
	FieldCreatedAt    = "created_at"
	FieldMetadata     = "metadata"
)
