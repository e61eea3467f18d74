package database

import (
	"context"
	"database/sql"
)

// statements creates the application tables when they do not exist. The
// uq_slot key on reservations is load-bearing: it is the store-level
// guarantee that two concurrent bookings for the same seat and start
// slot cannot both commit, independent of the in-memory conflict check.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		first_name    VARCHAR(100)  NOT NULL,
		last_name     VARCHAR(100)  NOT NULL,
		email         VARCHAR(255)  NOT NULL,
		password_hash VARCHAR(255)  NOT NULL,
		role          ENUM('STUDENT','LABTECH') NOT NULL DEFAULT 'STUDENT',
		is_active     TINYINT(1)    NOT NULL DEFAULT 1,
		created_at    TIMESTAMP     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    TIMESTAMP     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id    BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64)  NOT NULL,
		expires_at DATETIME  NOT NULL,
		revoked_at DATETIME  NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_refresh_hash (token_hash),
		KEY idx_refresh_user (user_id),
		CONSTRAINT fk_refresh_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS laboratories (
		id       BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		hall     VARCHAR(100) NOT NULL,
		room     VARCHAR(50)  NOT NULL,
		capacity INT          NOT NULL,
		UNIQUE KEY uq_lab_room (room)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS reservations (
		id               CHAR(36)     NOT NULL PRIMARY KEY,
		user_id          BIGINT UNSIGNED NOT NULL,
		student_name     VARCHAR(200) NOT NULL,
		laboratory_room  VARCHAR(50)  NOT NULL,
		seat_number      INT          NOT NULL,
		is_anonymous     TINYINT(1)   NOT NULL DEFAULT 0,
		booking_date     DATETIME     NOT NULL,
		reservation_date DATE         NOT NULL,
		start_time       VARCHAR(12)  NOT NULL,
		end_time         VARCHAR(12)  NOT NULL,
		UNIQUE KEY uq_slot (laboratory_room, seat_number, reservation_date, start_time),
		KEY idx_res_room_date (laboratory_room, reservation_date),
		KEY idx_res_user (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate applies the schema. Statements are idempotent so running at
// every startup is safe.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
