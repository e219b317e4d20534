package pglistener

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
)

const notifyFunctionName = "notify_message_change"

// TriggerName is fixed wire contract: external tooling (and the reconnect
// path) relies on DROP TRIGGER IF EXISTS finding it under this name.
const TriggerName = "messages_notify_trigger"

// InstallTrigger (re)creates the notify function and the row trigger on the
// given table. CREATE OR REPLACE plus DROP IF EXISTS make it safe to run on
// every connect, so manual trigger deletion or schema drift self-heals the
// next time the listener (re)connects.
//
// The function serializes the row change into the JSON payload documented on
// ChangeEvent: INSERT and UPDATE emit the new row, UPDATE additionally the
// old row's id/content/is_deleted as previous_* fields, DELETE only the
// identifying columns of the old row.
func InstallTrigger(ctx context.Context, conn Conn, channel, table string) error {
	functionSQL := fmt.Sprintf(`
CREATE OR REPLACE FUNCTION %s()
RETURNS TRIGGER AS $$
BEGIN
    IF TG_OP = 'INSERT' THEN
        PERFORM pg_notify(%s, json_build_object(
            'operation', TG_OP,
            'table', TG_TABLE_NAME,
            'id', NEW.id,
            'group_id', NEW.group_id,
            'sender_id', NEW.sender_id,
            'content', NEW.content,
            'file', NEW.file,
            'created_date', NEW.created_date,
            'is_deleted', NEW.is_deleted
        )::text);
        RETURN NEW;
    ELSIF TG_OP = 'UPDATE' THEN
        PERFORM pg_notify(%s, json_build_object(
            'operation', TG_OP,
            'table', TG_TABLE_NAME,
            'id', NEW.id,
            'group_id', NEW.group_id,
            'sender_id', NEW.sender_id,
            'content', NEW.content,
            'file', NEW.file,
            'created_date', NEW.created_date,
            'is_deleted', NEW.is_deleted,
            'previous_id', OLD.id,
            'previous_content', OLD.content,
            'previous_is_deleted', OLD.is_deleted
        )::text);
        RETURN NEW;
    ELSIF TG_OP = 'DELETE' THEN
        PERFORM pg_notify(%s, json_build_object(
            'operation', TG_OP,
            'table', TG_TABLE_NAME,
            'id', OLD.id,
            'group_id', OLD.group_id,
            'sender_id', OLD.sender_id
        )::text);
        RETURN OLD;
    END IF;
    RETURN NULL;
END;
$$ LANGUAGE plpgsql;`,
		pgx.Identifier{notifyFunctionName}.Sanitize(),
		quoteLiteral(channel), quoteLiteral(channel), quoteLiteral(channel),
	)

	if _, err := conn.Exec(ctx, functionSQL); err != nil {
		return errors.Wrap(err, "create notify function")
	}

	tableIdent := pgx.Identifier{table}.Sanitize()
	triggerSQL := fmt.Sprintf(`
DROP TRIGGER IF EXISTS %s ON %s;
CREATE TRIGGER %s
AFTER INSERT OR UPDATE OR DELETE ON %s
FOR EACH ROW EXECUTE FUNCTION %s();`,
		pgx.Identifier{TriggerName}.Sanitize(), tableIdent,
		pgx.Identifier{TriggerName}.Sanitize(), tableIdent,
		pgx.Identifier{notifyFunctionName}.Sanitize(),
	)

	if _, err := conn.Exec(ctx, triggerSQL); err != nil {
		return errors.Wrap(err, "create notify trigger")
	}
	return nil
}

// quoteLiteral quotes a string for use as a SQL string literal. Channel
// names come from configuration, not user input, but quoting keeps the DDL
// well-formed regardless.
func quoteLiteral(s string) string {
	out := []byte{'\''}
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\'')
		}
		out = append(out, s[i])
	}
	return string(append(out, '\''))
}
