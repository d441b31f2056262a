package database

// Order queries
const (
	NextOrderSequenceSQL = `
		INSERT INTO order_sequences (day, last_value) VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE SET last_value = order_sequences.last_value + 1
		RETURNING last_value`

	InsertOrderSQL = `
		INSERT INTO orders (order_id, user_id, customer_name, customer_phone, customer_address,
			payment_method, items, subtotal, discount, total, status, loyalty_points_earned,
			coupon_code, spin_used, estimated_delivery, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	orderColumns = `order_id, user_id, customer_name, customer_phone, customer_address,
		payment_method, items, subtotal, discount, total, status, loyalty_points_earned,
		coupon_code, spin_used, estimated_delivery, rating, feedback, delivery_person_id,
		created_at, updated_at`

	GetOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders WHERE order_id = $1`

	ListOrdersByUserSQL = `SELECT ` + orderColumns + `
		FROM orders WHERE user_id = $1
		ORDER BY created_at DESC`

	ListOrdersSQL = `SELECT ` + orderColumns + `
		FROM orders
		WHERE $1::text = '' OR status = $1::text
		ORDER BY created_at DESC, order_id DESC
		LIMIT $2 OFFSET $3`

	CountOrdersSQL = `
		SELECT COUNT(*) FROM orders WHERE $1::text = '' OR status = $1::text`

	ListOrdersByCourierSQL = `SELECT ` + orderColumns + `
		FROM orders
		WHERE delivery_person_id = $1 AND status = $2
		ORDER BY created_at DESC, order_id DESC`

	OrderStatsSQL = `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'delivered'),
			COALESCE(SUM(total) FILTER (WHERE status = 'delivered'), 0)
		FROM orders`

	// The status guard makes the update a compare-and-set.
	UpdateOrderStatusSQL = `
		UPDATE orders
		SET status = $3,
			estimated_delivery = COALESCE($4, estimated_delivery),
			delivery_person_id = COALESCE($5, delivery_person_id),
			updated_at = $6
		WHERE order_id = $1 AND status = $2`

	MarkSpinUsedSQL = `
		UPDATE orders SET spin_used = TRUE
		WHERE order_id = $1 AND status = 'delivered' AND spin_used = FALSE`

	ReleaseSpinSQL = `
		UPDATE orders SET spin_used = FALSE
		WHERE order_id = $1 AND spin_used = TRUE`

	SaveOrderRatingSQL = `
		UPDATE orders SET rating = $2, feedback = $3
		WHERE order_id = $1 AND status = 'delivered'`
)

// Coupon queries
const (
	InsertCouponSQL = `
		INSERT INTO coupons (code, reward_name, effect, user_id, created_at, expires_at, used, used_by_order_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	GetCouponByCodeSQL = `
		SELECT code, reward_name, effect, user_id, created_at, expires_at, used, used_by_order_id
		FROM coupons WHERE code = $1`

	ConsumeCouponSQL = `
		UPDATE coupons SET used = TRUE, used_by_order_id = $2
		WHERE code = $1 AND used = FALSE AND expires_at > $3`

	ReleaseCouponSQL = `
		UPDATE coupons SET used = FALSE, used_by_order_id = NULL
		WHERE code = $1 AND used = TRUE AND used_by_order_id = $2`
)

// User queries
const (
	InsertUserSQL = `
		INSERT INTO users (username, full_name, phone, loyalty_points, addresses, is_banned)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	GetUserSQL = `
		SELECT id, username, full_name, phone, loyalty_points, addresses, is_banned
		FROM users WHERE id = $1`

	GetUserForUpdateSQL = GetUserSQL + ` FOR UPDATE`

	AddLoyaltyPointsSQL = `
		UPDATE users SET loyalty_points = loyalty_points + $2 WHERE id = $1`

	AppendUserAddressSQL = `
		UPDATE users SET addresses = array_append(addresses, $2) WHERE id = $1`

	SetUserBannedSQL = `
		UPDATE users SET is_banned = $2 WHERE id = $1`
)

// Support ticket queries
const (
	NextTicketSequenceSQL = `SELECT nextval('ticket_seq')`

	InsertTicketSQL = `
		INSERT INTO support_tickets (ticket_id, user_id, customer_name, customer_phone, customer_email,
			order_id, category, subject, description, status, priority, admin_notes, compensated,
			created_at, updated_at, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	ticketColumns = `ticket_id, user_id, customer_name, customer_phone, customer_email,
		order_id, category, subject, description, status, priority, admin_notes, compensated,
		created_at, updated_at, resolved_at`

	GetTicketSQL = `SELECT ` + ticketColumns + ` FROM support_tickets WHERE ticket_id = $1`

	ListTicketsSQL = `SELECT ` + ticketColumns + `
		FROM support_tickets
		WHERE $1::text = '' OR status = $1::text
		ORDER BY created_at DESC`

	UpdateTicketSQL = `
		UPDATE support_tickets
		SET status = $3, priority = $4, admin_notes = $5, updated_at = $6, resolved_at = $7
		WHERE ticket_id = $1 AND status = $2`

	MarkTicketCompensatedSQL = `
		UPDATE support_tickets SET compensated = TRUE, updated_at = $2
		WHERE ticket_id = $1 AND compensated = FALSE`

	ReleaseTicketCompensationSQL = `
		UPDATE support_tickets SET compensated = FALSE
		WHERE ticket_id = $1 AND compensated = TRUE`

	CountTicketsSQL = `SELECT COUNT(*) FROM support_tickets WHERE status = $1`

	TicketExistsSQL = `SELECT EXISTS (SELECT 1 FROM support_tickets WHERE ticket_id = $1)`
)

// Notification queries
const (
	InsertNotificationSQL = `
		INSERT INTO notifications (user_id, title, message, type, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	ListNotificationsSQL = `
		SELECT id, user_id, title, message, type, is_read, created_at
		FROM notifications
		WHERE user_id = $1 AND (NOT $2::boolean OR is_read = FALSE)
		ORDER BY created_at DESC, id DESC`

	MarkNotificationReadSQL = `
		UPDATE notifications SET is_read = TRUE WHERE id = $2 AND user_id = $1`
)
