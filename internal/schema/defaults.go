package schema

// DefaultCatalog holds the hand-maintained table definitions for the
// migration. The large free-text tables (message bodies, audit detail)
// are grouped into their own batch so a run can target just the tables
// that need the streaming path.
func DefaultCatalog() *Catalog {
	specs := []TableSpec{
		{
			Name: "account",
			Columns: []Column{
				{Name: "id", Type: TypeBigInt},
				{Name: "username", Type: TypeText},
				{Name: "email", Type: TypeText},
				{Name: "active", Type: TypeBoolean},
				{Name: "created_at", Type: TypeTimestamp},
			},
			IdentityColumn: "id",
		},
		{
			Name: "grouping",
			Columns: []Column{
				{Name: "id", Type: TypeBigInt},
				{Name: "name", Type: TypeText},
				{Name: "description", Type: TypeText},
			},
			IdentityColumn: "id",
		},
		{
			Name: "group_member",
			Columns: []Column{
				{Name: "group_id", Type: TypeBigInt},
				{Name: "account_id", Type: TypeBigInt},
				{Name: "joined_on", Type: TypeDate},
			},
		},
		{
			Name: "message",
			Columns: []Column{
				{Name: "id", Type: TypeBigInt},
				{Name: "account_id", Type: TypeBigInt},
				{Name: "subject", Type: TypeText},
				{Name: "body", Type: TypeText},
				{Name: "sent_at", Type: TypeTimestamp},
			},
			IdentityColumn: "id",
		},
		{
			Name: "audit_event",
			Columns: []Column{
				{Name: "id", Type: TypeBigInt},
				{Name: "account_id", Type: TypeBigInt},
				{Name: "action", Type: TypeText},
				{Name: "detail", Type: TypeText},
				{Name: "occurred_at", Type: TypeTimestamp},
			},
			IdentityColumn: "id",
		},
		{
			Name: "attachment",
			Columns: []Column{
				{Name: "id", Type: TypeBigInt},
				{Name: "message_id", Type: TypeBigInt},
				{Name: "filename", Type: TypeText},
				{Name: "content", Type: TypeBinary},
			},
			IdentityColumn: "id",
		},
	}

	batches := map[string][]string{
		"core":  {"account", "grouping", "group_member"},
		"large": {"message", "audit_event", "attachment"},
	}

	return NewCatalog(specs, batches)
}
