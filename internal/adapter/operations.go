package adapter

import (
	"context"

	goldap "github.com/go-ldap/ldap/v3"
	"github.com/google/uuid"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	"github.com/isometry/terraform-provider-ldap/internal/ldap"
)

const objectClassAttribute = "objectClass"

// Create adds one entry per resource, in order. A resource without a DN or
// without attributes aborts the call with a ValidationError; the Result then
// carries the count reached so far. Rejected adds are recorded in
// Result.Failures and do not stop the batch.
func (a *Adapter) Create(ctx context.Context, resources []Resource) (Result, error) {
	ctx = a.operationContext(ctx, "create")
	var res Result

	for i, r := range resources {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		if r == nil {
			return res, a.invalid(ctx, &ValidationError{Operation: "create", Index: i, Reason: "resource is nil"})
		}

		dn := r.DN()
		if dn == "" {
			return res, a.invalid(ctx, &ValidationError{Operation: "create", Index: i, Reason: "DN is empty"})
		}

		attrs, err := encodeAttributes(r.Attributes())
		if err != nil {
			return res, a.invalid(ctx, &ValidationError{Operation: "create", Index: i, DN: dn, Reason: err.Error()})
		}
		if len(attrs) == 0 {
			return res, a.invalid(ctx, &ValidationError{Operation: "create", Index: i, DN: dn, Reason: "no attributes"})
		}

		if classes := r.ObjectClasses(); len(classes) > 0 && !hasKeyFold(attrs, objectClassAttribute) {
			attrs[objectClassAttribute] = classes
		}

		err = a.client.Add(ctx, &ldap.AddRequest{DN: dn, Attributes: attrs})
		if ldap.IsTransportError(err) {
			return res, a.aborted(ctx, "create", err)
		}

		a.tally(ctx, &res, "add", dn, "")
	}

	tflog.SubsystemDebug(ctx, ldap.SubsystemAdapter, "Create completed", res.logFields())

	return res, nil
}

// Update applies changes to every entry matching q. An attribute the entry
// already carries is replaced, a missing one is added, and a nil or empty
// value deletes it when present. Each attribute modification counts on its
// own; rejected ones are recorded and the batch continues.
func (a *Adapter) Update(ctx context.Context, changes map[string]any, q *Query) (Result, error) {
	ctx = a.operationContext(ctx, "update")
	var res Result

	if len(changes) == 0 {
		return res, nil
	}

	encoded := make(map[string][]string, len(changes))
	for name, v := range changes {
		values, err := stringValues(v)
		if err != nil {
			return res, a.invalid(ctx, &ValidationError{Operation: "update", Index: -1, Reason: "attribute " + name + ": " + err.Error()})
		}
		encoded[name] = values
	}
	names := sortedKeys(encoded)

	entries, err := a.find(ctx, q, names, 0)
	if err != nil {
		return res, err
	}

	for _, entry := range entries {
		for _, name := range names {
			if err := ctx.Err(); err != nil {
				return res, err
			}

			values := encoded[name]
			present := ldap.HasAttribute(entry, name)

			req := &ldap.ModifyRequest{DN: entry.DN}
			switch {
			case len(values) == 0 && present:
				req.DeleteAttributes = []string{name}
			case present:
				req.ReplaceAttributes = map[string][]string{name: values}
			case len(values) > 0:
				req.AddAttributes = map[string][]string{name: values}
			}
			// Removing an attribute the entry does not carry.
			if req.IsEmpty() {
				continue
			}

			err := a.client.Modify(ctx, req)
			if ldap.IsTransportError(err) {
				return res, a.aborted(ctx, "update", err)
			}

			a.tally(ctx, &res, "modify", entry.DN, name)
		}
	}

	tflog.SubsystemDebug(ctx, ldap.SubsystemAdapter, "Update completed", res.logFields())

	return res, nil
}

// Delete removes every entry matching q. Rejected deletes are recorded and
// the batch continues.
func (a *Adapter) Delete(ctx context.Context, q *Query) (Result, error) {
	ctx = a.operationContext(ctx, "delete")
	var res Result

	entries, err := a.find(ctx, q, []string{noAttributes}, 0)
	if err != nil {
		return res, err
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		err := a.client.Delete(ctx, entry.DN)
		if ldap.IsTransportError(err) {
			return res, a.aborted(ctx, "delete", err)
		}

		a.tally(ctx, &res, "delete", entry.DN, "")
	}

	tflog.SubsystemDebug(ctx, ldap.SubsystemAdapter, "Delete completed", res.logFields())

	return res, nil
}

// ReadMany loads every entry matching q through the model's Load hook, in
// the order the server returns them. Each selected field contributes the
// first value of the attribute; "dn" selects the entry DN.
func (a *Adapter) ReadMany(ctx context.Context, q *Query) ([]Resource, error) {
	ctx = a.operationContext(ctx, "read")

	if q == nil {
		q = &Query{}
	}

	fields := q.selectedFields(a.config.Attributes)
	if len(fields) == 0 {
		return nil, a.invalid(ctx, &ValidationError{Operation: "read", Index: -1, Reason: "query selects no fields"})
	}

	entries, err := a.find(ctx, q, searchAttributes(fields), q.Limit)
	if err != nil {
		return nil, err
	}

	resolved := *q
	resolved.Fields = fields

	resources := make([]Resource, 0, len(entries))
	for _, entry := range entries {
		values := make([]string, len(fields))
		for i, field := range fields {
			value, _, err := ldap.FirstValue(entry, field)
			if err != nil {
				tflog.SubsystemWarn(ctx, ldap.SubsystemAdapter, "Undecodable attribute value", map[string]any{
					"dn":    entry.DN,
					"field": field,
					"error": err.Error(),
				})
				continue
			}
			values[i] = value
		}

		resource, err := q.Model.load(values, &resolved)
		if err != nil {
			return resources, err
		}
		resources = append(resources, resource)
	}

	return resources, nil
}

// ReadOne returns the first entry matching q. found is false when nothing
// matches.
func (a *Adapter) ReadOne(ctx context.Context, q *Query) (resource Resource, found bool, err error) {
	limited := Query{}
	if q != nil {
		limited = *q
	}
	limited.Limit = 1

	resources, err := a.ReadMany(ctx, &limited)
	if err != nil || len(resources) == 0 {
		return nil, false, err
	}

	return resources[0], true, nil
}

// Filter returns the search filter a query translates to, including the
// configured base filter.
func (a *Adapter) Filter(ctx context.Context, q *Query) (string, error) {
	ctx = ldap.WithSubsystems(ctx)

	filter, err := a.filter(ctx, q)
	if err != nil {
		return "", err
	}
	return FilterString(filter), nil
}

func (a *Adapter) filter(ctx context.Context, q *Query) (Filter, error) {
	var conditions []Condition
	if q != nil {
		conditions = q.Conditions
	}

	filter, err := a.translator.Translate(ctx, conditions)
	if err != nil {
		return nil, err
	}

	return And(a.baseFilter, filter), nil
}

// find translates q and searches with the given attributes.
func (a *Adapter) find(ctx context.Context, q *Query, attrs []string, limit int) ([]*goldap.Entry, error) {
	if a.closed {
		return nil, ldap.ErrClosed
	}

	filter, err := a.filter(ctx, q)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := &ldap.SearchRequest{
		BaseDN:     a.config.Base,
		Scope:      a.config.Scope,
		Filter:     FilterString(filter),
		Attributes: attrs,
		SizeLimit:  a.sizeLimit,
		TimeLimit:  a.timeLimit,
	}

	if q != nil {
		if q.BaseDN != "" {
			req.BaseDN = q.BaseDN
		}
		if q.Scope != nil {
			req.Scope = *q.Scope
		}
	}

	if limit > 0 && (req.SizeLimit == 0 || limit < req.SizeLimit) {
		req.SizeLimit = limit
	}

	result, err := a.client.Search(ctx, req)
	if err != nil {
		tflog.SubsystemError(ctx, ldap.SubsystemAdapter, "Search failed", map[string]any{
			"base_dn": req.BaseDN,
			"filter":  req.Filter,
			"error":   err.Error(),
		})
		return nil, err
	}

	return result.Entries, nil
}

// tally counts the client's last result against res.
func (a *Adapter) tally(ctx context.Context, res *Result, operation, dn, attribute string) {
	result := a.client.LastResult()
	if result.Success() {
		res.Succeeded++
		return
	}

	opErr := &OperationError{
		Operation: operation,
		DN:        dn,
		Attribute: attribute,
		Code:      result.Code,
		Message:   result.Message,
	}
	res.Failures = append(res.Failures, opErr)

	fields := map[string]any{
		"operation": operation,
		"dn":        dn,
		"code":      result.Code,
		"message":   result.Message,
	}
	if attribute != "" {
		fields["attribute"] = attribute
	}
	tflog.SubsystemError(ctx, ldap.SubsystemAdapter, "Directory operation failed", fields)
}

func (a *Adapter) invalid(ctx context.Context, err *ValidationError) error {
	tflog.SubsystemError(ctx, ldap.SubsystemAdapter, "Rejected invalid input", map[string]any{
		"operation": err.Operation,
		"dn":        err.DN,
		"reason":    err.Reason,
	})
	return err
}

func (a *Adapter) aborted(ctx context.Context, operation string, err error) error {
	tflog.SubsystemError(ctx, ldap.SubsystemAdapter, "Connection failure, aborting batch", map[string]any{
		"operation": operation,
		"error":     err.Error(),
	})
	return err
}

// operationContext registers the log subsystems and tags every message of
// one adapter call with a correlation ID.
func (a *Adapter) operationContext(ctx context.Context, operation string) context.Context {
	ctx = ldap.WithSubsystems(ctx)
	ctx = tflog.SubsystemSetField(ctx, ldap.SubsystemAdapter, "operation_id", uuid.NewString())
	return tflog.SubsystemSetField(ctx, ldap.SubsystemAdapter, "adapter_operation", operation)
}

func (r Result) logFields() map[string]any {
	return map[string]any{
		"succeeded": r.Succeeded,
		"failed":    r.Failed(),
	}
}
