package introspect

const tablesQuery = `
	SELECT
		t.table_name,
		obj_description(c.oid, 'pg_class') AS table_comment
	FROM information_schema.tables t
	JOIN pg_namespace n ON n.nspname = t.table_schema
	JOIN pg_class c ON c.relname = t.table_name AND c.relnamespace = n.oid
	WHERE t.table_schema = $1
	AND t.table_type = 'BASE TABLE'
	ORDER BY t.table_name
`

const columnsQuery = `
	SELECT
		c.column_name,
		c.ordinal_position,
		c.data_type,
		c.udt_name,
		c.is_nullable = 'YES' AS is_nullable,
		c.character_maximum_length,
		c.numeric_precision,
		c.numeric_scale,
		col_description(pgc.oid, c.ordinal_position) AS column_comment
	FROM information_schema.columns c
	JOIN pg_namespace n ON n.nspname = c.table_schema
	JOIN pg_class pgc ON pgc.relname = c.table_name AND pgc.relnamespace = n.oid
	WHERE c.table_schema = $1 AND c.table_name = $2
	ORDER BY c.ordinal_position
`

const keysQuery = `
	SELECT
		tc.constraint_name,
		tc.constraint_type,
		array_agg(kcu.column_name::text ORDER BY kcu.ordinal_position) AS columns
	FROM information_schema.table_constraints tc
	JOIN information_schema.key_column_usage kcu
		ON tc.constraint_name = kcu.constraint_name
		AND tc.table_schema = kcu.table_schema
		AND tc.table_name = kcu.table_name
	WHERE tc.constraint_type IN ('PRIMARY KEY', 'UNIQUE')
	AND tc.table_schema = $1
	AND tc.table_name = $2
	GROUP BY tc.constraint_name, tc.constraint_type
	ORDER BY tc.constraint_type, tc.constraint_name
`

const foreignKeysQuery = `
	SELECT
		tc.constraint_name,
		array_agg(kcu.column_name::text ORDER BY kcu.ordinal_position) AS columns,
		rcu.table_name AS referenced_table,
		array_agg(rcu.column_name::text ORDER BY kcu.ordinal_position) AS referenced_columns,
		rc.delete_rule,
		rc.update_rule
	FROM information_schema.table_constraints tc
	JOIN information_schema.key_column_usage kcu
		ON tc.constraint_name = kcu.constraint_name
		AND tc.table_schema = kcu.table_schema
		AND tc.table_name = kcu.table_name
	JOIN information_schema.referential_constraints rc
		ON tc.constraint_name = rc.constraint_name
		AND tc.table_schema = rc.constraint_schema
	JOIN information_schema.key_column_usage rcu
		ON rcu.constraint_name = rc.unique_constraint_name
		AND rcu.constraint_schema = rc.unique_constraint_schema
		AND rcu.ordinal_position = kcu.position_in_unique_constraint
	WHERE tc.constraint_type = 'FOREIGN KEY'
	AND tc.table_schema = $1
	AND tc.table_name = $2
	GROUP BY tc.constraint_name, rcu.table_name, rc.delete_rule, rc.update_rule
	ORDER BY tc.constraint_name
`
