package database

// Menu catalog queries
const (
	GetActiveMenuItemsSQL = `
		SELECT id, name, description, is_active
		FROM menu_items
		WHERE is_active
		ORDER BY position ASC`

	GetMenuItemSQL = `
		SELECT id, name, description, is_active
		FROM menu_items WHERE id = $1`

	GetOptionsForItemSQL = `
		SELECT id, name, required, max_choices
		FROM menu_options
		WHERE item_id = $1
		ORDER BY position ASC`

	GetOptionForItemSQL = `
		SELECT id, name, required, max_choices
		FROM menu_options
		WHERE item_id = $1 AND id = $2`

	GetChoicesForOptionSQL = `
		SELECT c.id, c.name
		FROM menu_choices c
		JOIN menu_options o ON c.option_id = o.id
		WHERE o.item_id = $1 AND o.id = $2
		ORDER BY c.position ASC`
)

// Order queries
const (
	InsertOrderSQL = `
		INSERT INTO orders (id, user_name, status)
		VALUES ($1, $2, 'pending')
		RETURNING created_at`

	GetOrderSQL = `
		SELECT id, user_name, status, created_at
		FROM orders WHERE id = $1`

	GetOrdersByStatusSQL = `
		SELECT id, user_name, status, created_at
		FROM orders
		WHERE status = $1
		ORDER BY created_at ASC`

	UpdateOrderCompletedSQL = `
		UPDATE orders SET status = 'completed', completed_at = NOW(), updated_at = NOW()
		WHERE id = $1`

	MarkOrderSubmittedSQL = `
		UPDATE orders SET submitted_at = NOW(), updated_at = NOW()
		WHERE id = $1`

	InsertOrderLineSQL = `
		INSERT INTO order_lines (id, order_id, item_id, qty, display_item_name)
		VALUES ($1, $2, $3, $4, $5)`

	InsertLineSelectionSQL = `
		INSERT INTO order_line_selections (line_id, option_id, choice_id, display_option_name, display_choice_name)
		VALUES ($1, $2, $3, $4, $5)`

	GetOrderLinesSQL = `
		SELECT id, item_id, qty, display_item_name
		FROM order_lines
		WHERE order_id = $1
		ORDER BY created_at ASC`

	GetLineSelectionsSQL = `
		SELECT option_id, choice_id, display_option_name, display_choice_name
		FROM order_line_selections
		WHERE line_id = $1
		ORDER BY id ASC`

	CountOrderLinesSQL = `
		SELECT COUNT(*) FROM order_lines WHERE order_id = $1`

	InsertOrderStatusLogSQL = `
		INSERT INTO order_status_log (order_id, status, changed_by, notes)
		VALUES ($1, $2, $3, $4)`
)
